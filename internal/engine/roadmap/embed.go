package roadmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_roadmap/internal/engine"
)

// Embedder calls the CLOVA embedding v2 API.
type Embedder struct {
	client *engine.ClovaClient
	path   string
	pacer  engine.Pacer
}

// NewEmbedder creates an Embedder. A nil pacer disables pausing.
func NewEmbedder(client *engine.ClovaClient, path string, pacer engine.Pacer) *Embedder {
	if pacer == nil {
		pacer = engine.NoPause{}
	}
	return &Embedder{client: client, path: path, pacer: pacer}
}

type embeddingResponse struct {
	Result struct {
		Embedding []float64 `json:"embedding"`
	} `json:"result"`
}

// Embed returns the vector for text. The pacer runs after every call that reached the service.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	raw, err := e.client.Post(ctx, "embedding", e.path, map[string]string{"text": text})
	if err != nil {
		if errors.Is(err, engine.ErrConfig) {
			return nil, err
		}
		engine.IncrEmbeddingErrors()
		e.pause(ctx)
		return nil, fmt.Errorf("embed: %w", err)
	}
	engine.IncrEmbeddingCalls()
	e.pause(ctx)

	var resp embeddingResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &engine.UpstreamError{Service: "embedding", Err: fmt.Errorf("decode: %w", err)}
	}
	if len(resp.Result.Embedding) == 0 {
		return nil, &engine.UpstreamError{Service: "embedding", Body: "empty embedding"}
	}
	return resp.Result.Embedding, nil
}

func (e *Embedder) pause(ctx context.Context) {
	if err := e.pacer.Pause(ctx); err != nil {
		slog.Debug("embedding: pause interrupted", slog.Any("error", err))
	}
}

// CachedEmbedder memoizes query vectors in the engine cache.
type CachedEmbedder struct {
	Next interface {
		Embed(ctx context.Context, text string) ([]float64, error)
	}
}

func (c CachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	key := engine.CacheKey("embedding", text)
	if v, ok := engine.CacheLoadJSON[[]float64](ctx, key); ok && len(v) > 0 {
		return v, nil
	}
	v, err := c.Next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	engine.CacheStoreJSON(ctx, key, v)
	return v, nil
}
