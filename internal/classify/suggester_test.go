package classify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/model"
)

func testCategories() []model.Category {
	return []model.Category{
		{ID: 1, Name: "Groceries", IsActive: true},
		{ID: 2, Name: "Utilities", IsActive: true},
		{ID: 3, Name: "Travel", IsActive: false},
	}
}

func TestKeywordSuggester(t *testing.T) {
	suggester := NewKeywordSuggester()
	ctx := context.Background()

	tests := []struct {
		name        string
		description string
		want        *int
	}{
		{"direct hit", "GROCERIES STORE 42", intPtr(1)},
		{"case insensitive", "monthly utilities bill", intPtr(2)},
		{"inactive category skipped", "TRAVEL AGENCY", nil},
		{"no match", "CINEMA TICKETS", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := suggester.SuggestCategory(ctx, tt.description, testCategories())
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.want, *got)
			}
		})
	}
}

// countingSuggester tracks how often the wrapped lookup actually runs.
type countingSuggester struct {
	result *int
	err    error
	calls  int
}

func (s *countingSuggester) SuggestCategory(_ context.Context, _ string, _ []model.Category) (*int, error) {
	s.calls++
	return s.result, s.err
}

func TestCachedSuggesterHitsCache(t *testing.T) {
	inner := &countingSuggester{result: intPtr(7)}
	cached := NewCachedSuggester(inner, NewMemoryCache(), time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := cached.SuggestCategory(ctx, "NETFLIX.COM", nil)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 7, *got)
	}
	assert.Equal(t, 1, inner.calls)

	// Key is the normalized description, so memo variants share an entry.
	_, err := cached.SuggestCategory(ctx, "  netflix.com ", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedSuggesterDoesNotCacheFailures(t *testing.T) {
	inner := &countingSuggester{err: errors.New("unavailable")}
	cached := NewCachedSuggester(inner, NewMemoryCache(), time.Minute)
	ctx := context.Background()

	_, err := cached.SuggestCategory(ctx, "NETFLIX.COM", nil)
	require.Error(t, err)

	// The collaborator recovered; the next call must reach it.
	inner.err = nil
	inner.result = intPtr(7)
	got, err := cached.SuggestCategory(ctx, "NETFLIX.COM", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSuggesterDoesNotCacheNil(t *testing.T) {
	inner := &countingSuggester{}
	cached := NewCachedSuggester(inner, NewMemoryCache(), time.Minute)
	ctx := context.Background()

	got, err := cached.SuggestCategory(ctx, "UNKNOWN MERCHANT", nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = cached.SuggestCategory(ctx, "UNKNOWN MERCHANT", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache()

	cache.SetWithTTL("key", 42, 50*time.Millisecond)
	got, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, 42, got)

	time.Sleep(60 * time.Millisecond)
	_, ok = cache.Get("key")
	assert.False(t, ok)
}

func intPtr(v int) *int { return &v }
