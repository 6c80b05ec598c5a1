package cli

import (
	"context"
	"log/slog"

	"github.com/inr100/offsync/internal/cache"
	"github.com/inr100/offsync/internal/config"
	"github.com/inr100/offsync/internal/engine"
	"github.com/inr100/offsync/internal/queue"
	"github.com/inr100/offsync/internal/records"
	"github.com/inr100/offsync/internal/remote"
	"github.com/inr100/offsync/internal/store"
)

// app is the wired sync stack a command works against.
type app struct {
	cfg     config.Config
	store   *store.Store
	cache   *cache.Cache
	queue   *queue.Queue
	records *records.Store
	api     remote.API
	prober  engine.Prober
}

// openApp loads the config, opens the database and wires the components.
// Callers must Close the returned app.
func openApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}

	slog.Debug("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	a := &app{
		cfg:    cfg,
		store:  st,
		cache:  cache.New(st, cache.WithPolicy(cfg.Policy())),
		api:    opts.API,
		prober: opts.Prober,
	}

	a.queue, err = queue.Open(ctx, st)
	if err != nil {
		a.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load offline queue", err)
	}
	a.records = records.New(st, a.cache)

	if a.api == nil {
		a.api = remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Token, cfg.Remote.Timeout)
	}
	if a.prober == nil {
		a.prober = &engine.HTTPProber{
			Target:  cfg.Probe.Target,
			Method:  cfg.Probe.Method,
			Timeout: cfg.Probe.Timeout,
		}
	}
	return a, nil
}

// coordinator builds a Coordinator over the app's components.
func (a *app) coordinator(opts ...engine.Option) (*engine.Coordinator, error) {
	opts = append([]engine.Option{
		engine.WithMaxRetries(a.cfg.Sync.MaxRetries),
		engine.WithInterval(a.cfg.Sync.Interval),
	}, opts...)
	coord, err := engine.New(a.cache, a.queue, a.api, a.prober, opts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create sync coordinator", err)
	}
	return coord, nil
}

// Close releases the database.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
