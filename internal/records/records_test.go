package records

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inr100/offsync/internal/cache"
	"github.com/inr100/offsync/internal/ir"
	"github.com/inr100/offsync/internal/store"
	"github.com/inr100/offsync/internal/testutil"
)

func newTestRecords(t *testing.T) (*Store, *store.Store, *cache.Cache, *testutil.FakeClock) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := testutil.NewFakeClock()
	c := cache.New(s, cache.WithClock(clock))
	return New(s, c, WithClock(clock)), s, c, clock
}

func TestPreferences(t *testing.T) {
	ctx := context.Background()
	r, _, _, _ := newTestRecords(t)

	_, ok := r.Preferences(ctx)
	assert.False(t, ok)

	require.NoError(t, r.SavePreferences(ctx, map[string]any{"theme": "dark", "alerts": true}))
	prefs, ok := r.Preferences(ctx)
	require.True(t, ok)
	assert.Equal(t, "dark", prefs["theme"])
	assert.Equal(t, true, prefs["alerts"])
}

func TestPreferences_CorruptRecordFailsOpen(t *testing.T) {
	ctx := context.Background()
	r, s, _, _ := newTestRecords(t)
	require.NoError(t, s.Put(ctx, KeyPreferences, "{oops"))

	_, ok := r.Preferences(ctx)
	assert.False(t, ok)
}

func TestSearchHistory_NewestFirstAndDeduped(t *testing.T) {
	ctx := context.Background()
	r, _, _, clock := newTestRecords(t)

	assert.Empty(t, r.SearchHistory(ctx))

	require.NoError(t, r.AddSearch(ctx, "TCS", ""))
	clock.Advance(time.Second)
	require.NoError(t, r.AddSearch(ctx, "nifty etf", "fund"))
	clock.Advance(time.Second)
	require.NoError(t, r.AddSearch(ctx, "TCS", "asset"))

	history := r.SearchHistory(ctx)
	require.Len(t, history, 2)
	assert.Equal(t, "TCS", history[0].Query)
	assert.Equal(t, DefaultSearchType, history[0].Type)
	assert.Equal(t, clock.Now().UnixMilli(), history[0].Timestamp)
	assert.Equal(t, "nifty etf", history[1].Query)
	assert.Equal(t, "fund", history[1].Type)
}

func TestSearchHistory_Capped(t *testing.T) {
	ctx := context.Background()
	r, _, _, _ := newTestRecords(t)

	for i := 0; i < MaxSearchHistory+5; i++ {
		require.NoError(t, r.AddSearch(ctx, fmt.Sprintf("q%d", i), ""))
	}

	history := r.SearchHistory(ctx)
	require.Len(t, history, MaxSearchHistory)
	assert.Equal(t, fmt.Sprintf("q%d", MaxSearchHistory+4), history[0].Query)
	assert.Equal(t, "q5", history[MaxSearchHistory-1].Query)
}

func TestSearchHistory_BlankQueryIgnored(t *testing.T) {
	ctx := context.Background()
	r, _, _, _ := newTestRecords(t)

	require.NoError(t, r.AddSearch(ctx, "   ", ""))
	assert.Empty(t, r.SearchHistory(ctx))
}

func TestClearSearchHistory(t *testing.T) {
	ctx := context.Background()
	r, _, _, _ := newTestRecords(t)

	require.NoError(t, r.AddSearch(ctx, "INFY", ""))
	require.NoError(t, r.ClearSearchHistory(ctx))
	assert.Empty(t, r.SearchHistory(ctx))
	require.NoError(t, r.ClearSearchHistory(ctx))
}

func TestWatchlist_CachedAndDurable(t *testing.T) {
	ctx := context.Background()
	r, s, c, clock := newTestRecords(t)

	assert.Empty(t, r.Watchlist(ctx))

	require.NoError(t, r.SaveWatchlist(ctx, []string{"TCS", "INFY"}))
	assert.Equal(t, []string{"TCS", "INFY"}, r.Watchlist(ctx))

	cached, ok := cache.Lookup[[]string](ctx, c, cache.ResourceWatchlist)
	require.True(t, ok)
	assert.Equal(t, []string{"TCS", "INFY"}, cached)

	// After the cache entry expires the durable record still answers.
	clock.Advance(61 * time.Minute)
	assert.Equal(t, []string{"TCS", "INFY"}, r.Watchlist(ctx))

	raw, found, err := s.Get(ctx, KeyWatchlist)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `["TCS","INFY"]`, raw)
}

func TestLearningProgress(t *testing.T) {
	ctx := context.Background()
	r, _, c, clock := newTestRecords(t)

	assert.Empty(t, r.LearningProgress(ctx))

	require.NoError(t, r.SaveLearningProgress(ctx, map[string]any{"basics": float64(3)}))
	assert.Equal(t, map[string]any{"basics": float64(3)}, r.LearningProgress(ctx))

	clock.Advance(119 * time.Minute)
	_, ok := c.Get(ctx, cache.ResourceLearningProgress)
	assert.True(t, ok)
	clock.Advance(2 * time.Minute)
	_, ok = c.Get(ctx, cache.ResourceLearningProgress)
	assert.False(t, ok)

	assert.Equal(t, map[string]any{"basics": float64(3)}, r.LearningProgress(ctx))
}

func TestNew_WithoutCache(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()

	r := New(s, nil)
	require.NoError(t, r.SaveWatchlist(ctx, []string{"HDFC"}))
	assert.Equal(t, []string{"HDFC"}, r.Watchlist(ctx))
}

type brokenStorage struct{ Storage }

func (brokenStorage) Put(ctx context.Context, key, value string) error {
	return fmt.Errorf("disk full")
}

func TestSave_StorageError(t *testing.T) {
	_, s, _, _ := newTestRecords(t)
	r := New(brokenStorage{s}, nil)

	err := r.SavePreferences(context.Background(), map[string]any{"a": 1})
	require.Error(t, err)
	assert.True(t, ir.IsStorageError(err))
}

func TestUsage(t *testing.T) {
	ctx := context.Background()
	r, _, _, _ := newTestRecords(t)

	empty := r.Usage(ctx)
	assert.Equal(t, 0, empty.Keys)
	assert.Equal(t, "0 B", empty.Formatted)

	require.NoError(t, r.SavePreferences(ctx, map[string]any{"theme": "dark"}))
	u := r.Usage(ctx)
	assert.Equal(t, 1, u.Keys)
	assert.Equal(t, int64(len(`{"theme":"dark"}`)), u.TotalBytes)
	assert.Equal(t, "16 B", u.Formatted)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{1023, "1023 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1 << 20, "1 MB"},
		{5 * 1 << 30, "5 GB"},
		{1 << 50, "1024 TB"},
		{1234567, "1.18 MB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.n), "n=%d", tt.n)
	}
}
