package services

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/desertthunder/snaplist/internal/cache"
)

// CachedSearcher memoizes a [VideoSearcher] by normalized query and result count.
//
// Only successful searches are cached; errors always pass through.
type CachedSearcher struct {
	next  VideoSearcher
	cache cache.Cache
}

// NewCachedSearcher wraps next with c.
func NewCachedSearcher(next VideoSearcher, c cache.Cache) *CachedSearcher {
	return &CachedSearcher{next: next, cache: c}
}

func (s *CachedSearcher) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	key := cache.Key("search", strings.ToLower(strings.TrimSpace(query)), strconv.Itoa(maxResults))

	if data, ok := s.cache.Get(ctx, key); ok {
		var results []SearchResult
		if err := json.Unmarshal(data, &results); err == nil {
			return results, nil
		}
	}

	results, err := s.next.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(results); err == nil {
		s.cache.Set(ctx, key, data)
	}
	return results, nil
}
