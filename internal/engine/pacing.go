package engine

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// Pacer is the backoff policy applied after every external call
// (embedding, reranker) to stay under upstream throughput limits.
type Pacer interface {
	Pause(ctx context.Context) error
}

// RandomPause sleeps a uniformly random duration in [Min, Max].
type RandomPause struct {
	Min time.Duration
	Max time.Duration
}

// DefaultPause matches the upstream guidance of roughly 0.3-0.7s between calls.
var DefaultPause = RandomPause{Min: 300 * time.Millisecond, Max: 700 * time.Millisecond}

func (p RandomPause) Pause(ctx context.Context) error {
	wait := p.Min
	if span := p.Max - p.Min; span > 0 {
		wait += rand.N(span + 1)
	}
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LimitPause blocks until the shared token bucket admits the next call.
type LimitPause struct {
	Limiter *rate.Limiter
}

func (p LimitPause) Pause(ctx context.Context) error {
	return p.Limiter.Wait(ctx)
}

// NoPause disables pacing. Used in tests and for local mock upstreams.
type NoPause struct{}

func (NoPause) Pause(context.Context) error { return nil }

// NewPacer builds the policy selected by Config.PaceMode.
func NewPacer(c Config) Pacer {
	switch c.PaceMode {
	case "none":
		return NoPause{}
	case "limit":
		rps := c.PaceRPS
		if rps <= 0 {
			rps = 2
		}
		return LimitPause{Limiter: rate.NewLimiter(rate.Limit(rps), 1)}
	case "", "random":
		p := DefaultPause
		if c.PaceMin > 0 {
			p.Min = c.PaceMin
		}
		if c.PaceMax > 0 {
			p.Max = c.PaceMax
		}
		if p.Max < p.Min {
			p.Max = p.Min
		}
		return p
	default:
		slog.Warn("pacing: unknown mode, using random", slog.String("mode", c.PaceMode))
		return DefaultPause
	}
}
