package classify

import (
	"context"
	"strings"
	"time"

	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/model"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/service"
)

// KeywordSuggester suggests the first active category whose name appears in
// the transaction description. It stands in for richer external classifiers
// behind the same service.CategorySuggester contract.
type KeywordSuggester struct{}

// NewKeywordSuggester creates a keyword-based suggester.
func NewKeywordSuggester() *KeywordSuggester {
	return &KeywordSuggester{}
}

// SuggestCategory returns a category id or nil when nothing matches.
func (s *KeywordSuggester) SuggestCategory(_ context.Context, description string, categories []model.Category) (*int, error) {
	haystack := strings.ToLower(description)
	for i := range categories {
		if !categories[i].IsActive {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(categories[i].Name)) {
			id := categories[i].ID
			return &id, nil
		}
	}
	return nil, nil
}

// CachedSuggester wraps a suggester with an injected TTL cache keyed by the
// normalized description, so repeated memos (the common case for bank feeds)
// skip the lookup entirely.
type CachedSuggester struct {
	inner service.CategorySuggester
	cache Cache
	ttl   time.Duration
}

// NewCachedSuggester wraps inner with the given cache and TTL.
func NewCachedSuggester(inner service.CategorySuggester, cache Cache, ttl time.Duration) *CachedSuggester {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedSuggester{inner: inner, cache: cache, ttl: ttl}
}

// SuggestCategory consults the cache before the wrapped suggester. Only
// successful non-nil suggestions are cached; failures stay uncached so a
// recovered collaborator is retried on the next record.
func (s *CachedSuggester) SuggestCategory(ctx context.Context, description string, categories []model.Category) (*int, error) {
	key := strings.ToLower(strings.TrimSpace(description))
	if id, ok := s.cache.Get(key); ok {
		return &id, nil
	}

	suggested, err := s.inner.SuggestCategory(ctx, description, categories)
	if err != nil {
		return nil, err
	}
	if suggested != nil {
		s.cache.SetWithTTL(key, *suggested, s.ttl)
	}
	return suggested, nil
}

var (
	_ service.CategorySuggester = (*KeywordSuggester)(nil)
	_ service.CategorySuggester = (*CachedSuggester)(nil)
)
