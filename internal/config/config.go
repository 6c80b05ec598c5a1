// Package config loads the offsync configuration file.
//
// The file is CUE (plain JSON is valid CUE). It is unified with an
// embedded schema that supplies every default and rejects unknown fields,
// so an empty file, or no file at all, yields a working configuration.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/inr100/offsync/internal/cache"
)

//go:embed schema.cue
var schemaSource string

// Config is the validated configuration with parsed durations.
type Config struct {
	Database string
	Remote   RemoteConfig
	Probe    ProbeConfig
	Sync     SyncConfig
	Cache    CacheConfig
}

// RemoteConfig configures the backend client.
type RemoteConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// ProbeConfig configures the reachability probe.
type ProbeConfig struct {
	Target  string
	Method  string
	Timeout time.Duration
}

// SyncConfig configures the coordinator.
type SyncConfig struct {
	Interval   time.Duration
	MaxRetries int
}

// CacheConfig overrides cache TTLs.
type CacheConfig struct {
	DefaultTTL time.Duration
	TTL        map[string]time.Duration
}

// file mirrors the schema for decoding.
type file struct {
	Database string `json:"database"`
	Remote   struct {
		BaseURL string `json:"base_url"`
		Token   string `json:"token"`
		Timeout string `json:"timeout"`
	} `json:"remote"`
	Probe struct {
		Target  string `json:"target"`
		Method  string `json:"method"`
		Timeout string `json:"timeout"`
	} `json:"probe"`
	Sync struct {
		Interval   string `json:"interval"`
		MaxRetries int    `json:"max_retries"`
	} `json:"sync"`
	Cache struct {
		DefaultTTL string            `json:"default_ttl"`
		TTL        map[string]string `json:"ttl"`
	} `json:"cache"`
}

// LoadError reports an invalid configuration.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Default returns the configuration an empty file produces.
func Default() Config {
	cfg, err := Parse(nil, "")
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema invalid: %v", err))
	}
	return cfg
}

// Load reads and validates the file at path. An empty path yields Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// Parse validates data against the schema. filename is used in error positions.
func Parse(data []byte, filename string) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, formatCUEError(err)
	}
	v := schema.LookupPath(cue.ParsePath("#Config"))

	if len(data) > 0 {
		user := ctx.CompileBytes(data, cue.Filename(filename))
		if err := user.Err(); err != nil {
			return Config{}, formatCUEError(err)
		}
		v = v.Unify(user)
	}

	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(err)
	}

	var f file
	if err := v.Decode(&f); err != nil {
		return Config{}, formatCUEError(err)
	}
	return f.resolve()
}

func (f file) resolve() (Config, error) {
	cfg := Config{
		Database: f.Database,
		Remote:   RemoteConfig{BaseURL: f.Remote.BaseURL, Token: f.Remote.Token},
		Probe:    ProbeConfig{Target: f.Probe.Target, Method: f.Probe.Method},
		Sync:     SyncConfig{MaxRetries: f.Sync.MaxRetries},
		Cache:    CacheConfig{TTL: make(map[string]time.Duration, len(f.Cache.TTL))},
	}

	durations := []struct {
		field string
		raw   string
		dst   *time.Duration
	}{
		{"remote.timeout", f.Remote.Timeout, &cfg.Remote.Timeout},
		{"probe.timeout", f.Probe.Timeout, &cfg.Probe.Timeout},
		{"sync.interval", f.Sync.Interval, &cfg.Sync.Interval},
		{"cache.default_ttl", f.Cache.DefaultTTL, &cfg.Cache.DefaultTTL},
	}
	for _, d := range durations {
		parsed, err := parseDuration(d.field, d.raw)
		if err != nil {
			return Config{}, err
		}
		*d.dst = parsed
	}

	for resource, raw := range f.Cache.TTL {
		parsed, err := parseDuration("cache.ttl."+resource, raw)
		if err != nil {
			return Config{}, err
		}
		cfg.Cache.TTL[resource] = parsed
	}
	return cfg, nil
}

func parseDuration(field, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, &LoadError{Field: field, Message: fmt.Sprintf("invalid duration %q", raw)}
	}
	if d <= 0 {
		return 0, &LoadError{Field: field, Message: fmt.Sprintf("duration must be positive, got %q", raw)}
	}
	return d, nil
}

// Policy returns the cache TTL policy with the configured overrides.
func (c Config) Policy() cache.Policy {
	p := cache.DefaultPolicy().WithDefault(c.Cache.DefaultTTL)
	for resource, ttl := range c.Cache.TTL {
		p = p.With(resource, ttl)
	}
	return p
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	le := &LoadError{Field: "cue", Message: first.Error()}
	if path := first.Path(); len(path) > 0 {
		le.Field = joinPath(path)
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

func joinPath(path []string) string {
	out := path[0]
	for _, p := range path[1:] {
		out += "." + p
	}
	return out
}
