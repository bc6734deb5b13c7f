package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	SearchRequests      atomic.Int64
	RerankRequests      atomic.Int64
	PersonalizeRequests atomic.Int64
	EmbeddingCalls      atomic.Int64
	EmbeddingErrors     atomic.Int64
	RerankerCalls       atomic.Int64
	RerankerErrors      atomic.Int64
	LLMCalls            atomic.Int64
	LLMErrors           atomic.Int64
	RepairDirect        atomic.Int64
	RepairFenced        atomic.Int64
	RepairSpan          atomic.Int64
	RepairFailed        atomic.Int64
	PersonalizeFallback atomic.Int64
	SnapshotRebuilds    atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"search_requests":      metrics.SearchRequests.Load(),
		"rerank_requests":      metrics.RerankRequests.Load(),
		"personalize_requests": metrics.PersonalizeRequests.Load(),
		"embedding_calls":      metrics.EmbeddingCalls.Load(),
		"embedding_errors":     metrics.EmbeddingErrors.Load(),
		"reranker_calls":       metrics.RerankerCalls.Load(),
		"reranker_errors":      metrics.RerankerErrors.Load(),
		"llm_calls":            metrics.LLMCalls.Load(),
		"llm_errors":           metrics.LLMErrors.Load(),
		"repair_direct":        metrics.RepairDirect.Load(),
		"repair_fenced":        metrics.RepairFenced.Load(),
		"repair_span":          metrics.RepairSpan.Load(),
		"repair_failed":        metrics.RepairFailed.Load(),
		"personalize_fallback": metrics.PersonalizeFallback.Load(),
		"snapshot_rebuilds":    metrics.SnapshotRebuilds.Load(),
		"cache_hits":           hits,
		"cache_misses":         misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"search_requests", "rerank_requests", "personalize_requests",
		"embedding_calls", "embedding_errors",
		"reranker_calls", "reranker_errors",
		"llm_calls", "llm_errors",
		"repair_direct", "repair_fenced", "repair_span", "repair_failed",
		"personalize_fallback", "snapshot_rebuilds",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the roadmap and profiles sub-packages.
func IncrSearchRequests()      { metrics.SearchRequests.Add(1) }
func IncrRerankRequests()      { metrics.RerankRequests.Add(1) }
func IncrPersonalizeRequests() { metrics.PersonalizeRequests.Add(1) }
func IncrEmbeddingCalls()      { metrics.EmbeddingCalls.Add(1) }
func IncrEmbeddingErrors()     { metrics.EmbeddingErrors.Add(1) }
func IncrRerankerCalls()       { metrics.RerankerCalls.Add(1) }
func IncrRerankerErrors()      { metrics.RerankerErrors.Add(1) }
func IncrPersonalizeFallback() { metrics.PersonalizeFallback.Add(1) }
func IncrSnapshotRebuilds()    { metrics.SnapshotRebuilds.Add(1) }

// IncrRepairStage counts which repair strategy produced the parsed object.
func IncrRepairStage(stage string) {
	switch stage {
	case "cleaned_direct":
		metrics.RepairDirect.Add(1)
	case "fenced_extracted":
		metrics.RepairFenced.Add(1)
	case "span_extracted":
		metrics.RepairSpan.Add(1)
	default:
		metrics.RepairFailed.Add(1)
	}
}

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
