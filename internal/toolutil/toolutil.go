// Package toolutil provides shared helpers for the roadmap MCP tools and REST handlers.
package toolutil

import (
	"context"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_roadmap/internal/engine"
)

// Default and maximum top_k values.
const (
	DefaultSearchTopK = 20
	DefaultRerankTopK = 10
	MaxTopK           = 100
)

// NormTopK applies the default for k <= 0 and caps k at MaxTopK. The cap is
// advertised in the tool input schemas and the REST route docs; below it, k is
// further clamped to the corpus size by the index.
func NormTopK(k, def int) int {
	if k <= 0 {
		return def
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}

// SearchKey builds the cache key of a retrieval result. The profile snapshot
// version is part of the key, so a rebuild invalidates every cached result.
// The query is trimmed the same way the query builder trims it.
func SearchKey(tool string, snapshot uint64, userID, job, query string, topK int) string {
	return engine.CacheKey(tool,
		strconv.FormatUint(snapshot, 10),
		userID,
		engine.NormalizeJobKey(job),
		strings.TrimSpace(query),
		strconv.Itoa(topK),
	)
}

// Cached returns the cached value for key or computes and stores it.
// Errors are not cached.
func Cached[T any](ctx context.Context, key string, compute func() (T, error)) (T, error) {
	if v, ok := engine.CacheLoadJSON[T](ctx, key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return v, err
	}
	engine.CacheStoreJSON(ctx, key, v)
	return v, nil
}
