package records

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/inr100/offsync/internal/cache"
	"github.com/inr100/offsync/internal/ir"
	"github.com/inr100/offsync/internal/store"
)

// Durable keys.
const (
	KeyPreferences      = "user_preferences"
	KeySearchHistory    = "search_history"
	KeyWatchlist        = "watchlist"
	KeyLearningProgress = "learning_progress"
)

// MaxSearchHistory bounds the stored search history.
const MaxSearchHistory = 50

// DefaultSearchType is used when AddSearch gets no type.
const DefaultSearchType = "asset"

// Storage is the durable backend. *store.Store implements it.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Usage(ctx context.Context) (store.Usage, error)
}

// SearchEntry is one remembered search.
type SearchEntry struct {
	Query     string `json:"query"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// Store reads and writes the auxiliary records.
//
// Thread-safety: safe for concurrent use; read-modify-write updates of the
// search history are serialized.
type Store struct {
	storage Storage
	cache   *cache.Cache
	clock   ir.Clock

	historyMu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for search timestamps.
func WithClock(c ir.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// New creates a Store. c may be nil, in which case nothing is cached.
func New(storage Storage, c *cache.Cache, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		cache:   c,
		clock:   ir.SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SavePreferences replaces the stored preferences.
func (s *Store) SavePreferences(ctx context.Context, prefs map[string]any) error {
	return s.write(ctx, KeyPreferences, prefs)
}

// Preferences returns the stored preferences; ok is false if none are stored.
func (s *Store) Preferences(ctx context.Context) (map[string]any, bool) {
	var prefs map[string]any
	if !s.read(ctx, KeyPreferences, &prefs) || prefs == nil {
		return nil, false
	}
	return prefs, true
}

// AddSearch records query at the front of the history. An earlier entry
// with the same query is dropped, and the history is capped at
// MaxSearchHistory entries.
func (s *Store) AddSearch(ctx context.Context, query, typ string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if typ == "" {
		typ = DefaultSearchType
	}

	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	history := s.SearchHistory(ctx)
	history = slices.DeleteFunc(history, func(e SearchEntry) bool {
		return e.Query == query
	})
	entry := SearchEntry{Query: query, Type: typ, Timestamp: s.clock.Now().UnixMilli()}
	history = append([]SearchEntry{entry}, history...)
	if len(history) > MaxSearchHistory {
		history = history[:MaxSearchHistory]
	}
	return s.write(ctx, KeySearchHistory, history)
}

// SearchHistory returns the history, newest first.
func (s *Store) SearchHistory(ctx context.Context) []SearchEntry {
	var history []SearchEntry
	if !s.read(ctx, KeySearchHistory, &history) || history == nil {
		return []SearchEntry{}
	}
	return history
}

// ClearSearchHistory forgets every search.
func (s *Store) ClearSearchHistory(ctx context.Context) error {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	if err := s.storage.Delete(ctx, KeySearchHistory); err != nil {
		return ir.NewError(ir.ErrCodeStorageIO, "clear search history", KeySearchHistory, err)
	}
	return nil
}

// SaveWatchlist stores the watchlist symbols and caches them.
func (s *Store) SaveWatchlist(ctx context.Context, symbols []string) error {
	if symbols == nil {
		symbols = []string{}
	}
	if err := s.write(ctx, KeyWatchlist, symbols); err != nil {
		return err
	}
	s.cachePut(ctx, cache.ResourceWatchlist, symbols)
	return nil
}

// Watchlist returns the watchlist, from the cache when it is fresh.
func (s *Store) Watchlist(ctx context.Context) []string {
	if s.cache != nil {
		if symbols, ok := cache.Lookup[[]string](ctx, s.cache, cache.ResourceWatchlist); ok {
			return symbols
		}
	}
	var symbols []string
	if !s.read(ctx, KeyWatchlist, &symbols) || symbols == nil {
		return []string{}
	}
	return symbols
}

// SaveLearningProgress stores learning progress and caches it.
func (s *Store) SaveLearningProgress(ctx context.Context, progress map[string]any) error {
	if progress == nil {
		progress = map[string]any{}
	}
	if err := s.write(ctx, KeyLearningProgress, progress); err != nil {
		return err
	}
	s.cachePut(ctx, cache.ResourceLearningProgress, progress)
	return nil
}

// LearningProgress returns learning progress, from the cache when it is fresh.
func (s *Store) LearningProgress(ctx context.Context) map[string]any {
	if s.cache != nil {
		if progress, ok := cache.Lookup[map[string]any](ctx, s.cache, cache.ResourceLearningProgress); ok {
			return progress
		}
	}
	var progress map[string]any
	if !s.read(ctx, KeyLearningProgress, &progress) || progress == nil {
		return map[string]any{}
	}
	return progress
}

func (s *Store) cachePut(ctx context.Context, resource string, value any) {
	if s.cache != nil {
		s.cache.PutResource(ctx, resource, value)
	}
}

func (s *Store) write(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return ir.NewError(ir.ErrCodeParse, "encode record", key, err)
	}
	if err := s.storage.Put(ctx, key, string(data)); err != nil {
		return ir.NewError(ir.ErrCodeStorageIO, "save record", key, err)
	}
	return nil
}

// read decodes the record under key into dst. It reports false for a
// missing, unreadable or undecodable record.
func (s *Store) read(ctx context.Context, key string, dst any) bool {
	data, found, err := s.storage.Get(ctx, key)
	if err != nil {
		slog.Warn("record read failed", "key", key, "error", err)
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		slog.Warn("record undecodable", "key", key, "error", err)
		return false
	}
	return true
}
