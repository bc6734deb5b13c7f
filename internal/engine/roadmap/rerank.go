package roadmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_roadmap/internal/engine"
)

// RerankDoc is one candidate sent to the reranker.
type RerankDoc struct {
	ID  string `json:"id"`
	Doc string `json:"doc"`
}

// RankedDoc is a candidate annotated with whether the reranker cited it.
type RankedDoc struct {
	ID    string `json:"id"`
	Doc   string `json:"doc"`
	Cited bool   `json:"cited"`
}

// RerankResult keeps the derived answer next to the untouched service payload.
// Raw holds the response bytes as received, so numbers and key order survive.
type RerankResult struct {
	Answer    string          `json:"answer"`
	Documents []RankedDoc     `json:"documents"`
	Raw       json.RawMessage `json:"reranker_raw"`
}

// Reranker calls the CLOVA reranker API.
type Reranker struct {
	client    *engine.ClovaClient
	path      string
	pacer     engine.Pacer
	maxTokens int
}

// NewReranker creates a Reranker. A nil pacer disables pausing.
func NewReranker(client *engine.ClovaClient, path string, pacer engine.Pacer) *Reranker {
	if pacer == nil {
		pacer = engine.NoPause{}
	}
	return &Reranker{client: client, path: path, pacer: pacer, maxTokens: 1024}
}

type rerankRequest struct {
	Documents []RerankDoc `json:"documents"`
	Query     string      `json:"query"`
	MaxTokens int         `json:"maxTokens"`
}

type rerankResponse struct {
	Result struct {
		Result         string `json:"result"`
		CitedDocuments []struct {
			ID string `json:"id"`
		} `json:"citedDocuments"`
	} `json:"result"`
}

// Rerank asks the service to judge docs against query. Fails with engine.ErrConfig
// before any request when the credential is missing.
func (r *Reranker) Rerank(ctx context.Context, query string, docs []RerankDoc) (*RerankResult, error) {
	raw, err := r.client.Post(ctx, "reranker", r.path, rerankRequest{
		Documents: docs,
		Query:     query,
		MaxTokens: r.maxTokens,
	})
	if err != nil {
		if errors.Is(err, engine.ErrConfig) {
			return nil, err
		}
		engine.IncrRerankerErrors()
		r.pause(ctx)
		return nil, fmt.Errorf("rerank: %w", err)
	}
	engine.IncrRerankerCalls()
	r.pause(ctx)

	if !json.Valid(raw) {
		return nil, &engine.UpstreamError{Service: "reranker", Err: errors.New("decode: invalid JSON")}
	}
	var resp rerankResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		// valid JSON but the result block has an unexpected shape; keep the raw copy
		slog.Warn("reranker: unexpected result shape", slog.Any("error", err))
	}

	cited := make(map[string]bool, len(resp.Result.CitedDocuments))
	for _, c := range resp.Result.CitedDocuments {
		cited[c.ID] = true
	}
	out := &RerankResult{
		Answer:    resp.Result.Result,
		Documents: make([]RankedDoc, len(docs)),
		Raw:       json.RawMessage(raw),
	}
	for i, d := range docs {
		out.Documents[i] = RankedDoc{ID: d.ID, Doc: d.Doc, Cited: cited[d.ID]}
	}
	return out, nil
}

func (r *Reranker) pause(ctx context.Context) {
	if err := r.pacer.Pause(ctx); err != nil {
		slog.Debug("reranker: pause interrupted", slog.Any("error", err))
	}
}
