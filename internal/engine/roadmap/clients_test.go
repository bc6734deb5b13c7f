package roadmap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_roadmap/internal/engine"
)

type countingPacer struct{ n atomic.Int32 }

func (p *countingPacer) Pause(context.Context) error {
	p.n.Add(1)
	return nil
}

func clovaServer(t *testing.T, handler func(t *testing.T, body map[string]any) (int, string)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-NCP-CLOVASTUDIO-REQUEST-ID"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		status, resp := handler(t, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestEmbedder_Embed(t *testing.T) {
	srv, hits := clovaServer(t, func(t *testing.T, body map[string]any) (int, string) {
		assert.Equal(t, "hello", body["text"])
		return http.StatusOK, `{"status":{"code":"20000","message":"OK"},"result":{"embedding":[0.5,-0.5,1]}}`
	})
	pacer := &countingPacer{}
	e := NewEmbedder(engine.NewClovaClient(srv.URL, "test-key", time.Second), "/v1/api-tools/embedding/v2", pacer)

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -0.5, 1}, vec)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, int32(1), pacer.n.Load())
}

func TestEmbedder_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusTooManyRequests, `{"status":{"code":"42901","message":"Too many requests"}}`},
		{"envelope error", http.StatusOK, `{"status":{"code":"40001","message":"bad request"}}`},
		{"empty vector", http.StatusOK, `{"status":{"code":"20000"},"result":{"embedding":[]}}`},
		{"not json", http.StatusOK, `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := clovaServer(t, func(*testing.T, map[string]any) (int, string) { return tt.status, tt.body })
			pacer := &countingPacer{}
			e := NewEmbedder(engine.NewClovaClient(srv.URL, "test-key", time.Second), "/embed", pacer)

			_, err := e.Embed(context.Background(), "x")
			require.Error(t, err)
			assert.True(t, errors.Is(err, engine.ErrUpstream), "got %v", err)
			assert.Equal(t, int32(1), pacer.n.Load())
		})
	}
}

func TestEmbedder_MissingKeyFailsFast(t *testing.T) {
	srv, hits := clovaServer(t, func(*testing.T, map[string]any) (int, string) { return http.StatusOK, `{}` })
	pacer := &countingPacer{}
	e := NewEmbedder(engine.NewClovaClient(srv.URL, "", time.Second), "/embed", pacer)

	_, err := e.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrConfig))
	assert.Equal(t, int32(0), hits.Load())
	assert.Equal(t, int32(0), pacer.n.Load())
}

func TestReranker_Rerank(t *testing.T) {
	const payload = `{"status":{"code":"20000","message":"OK"},"result":{"result":"Start with ml-002.","citedDocuments":[{"id":"ml-002","doc":"Probability"}],"usage":{"totalTokens":9007199254740993}}}`
	srv, _ := clovaServer(t, func(t *testing.T, body map[string]any) (int, string) {
		assert.Equal(t, "what first?", body["query"])
		assert.EqualValues(t, 1024, body["maxTokens"])
		docs, ok := body["documents"].([]any)
		if assert.True(t, ok) && assert.Len(t, docs, 2) {
			assert.Equal(t, map[string]any{"id": "ml-001", "doc": "Linear algebra"}, docs[0])
		}
		return http.StatusOK, payload
	})
	pacer := &countingPacer{}
	r := NewReranker(engine.NewClovaClient(srv.URL, "test-key", time.Second), "/v1/api-tools/reranker", pacer)

	res, err := r.Rerank(context.Background(), "what first?", []RerankDoc{
		{ID: "ml-001", Doc: "Linear algebra"},
		{ID: "ml-002", Doc: "Probability"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Start with ml-002.", res.Answer)
	assert.Equal(t, []RankedDoc{
		{ID: "ml-001", Doc: "Linear algebra", Cited: false},
		{ID: "ml-002", Doc: "Probability", Cited: true},
	}, res.Documents)

	// byte-for-byte: key order kept, integer above 2^53 not rounded through float64
	assert.Equal(t, payload, string(res.Raw))
	assert.Equal(t, int32(1), pacer.n.Load())
}

func TestReranker_MissingKeyFailsFast(t *testing.T) {
	srv, hits := clovaServer(t, func(*testing.T, map[string]any) (int, string) { return http.StatusOK, `{}` })
	r := NewReranker(engine.NewClovaClient(srv.URL, "", time.Second), "/rerank", nil)

	_, err := r.Rerank(context.Background(), "q", []RerankDoc{{ID: "a", Doc: "b"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrConfig))
	assert.Equal(t, int32(0), hits.Load())
}

func TestReranker_UpstreamError(t *testing.T) {
	srv, _ := clovaServer(t, func(*testing.T, map[string]any) (int, string) {
		return http.StatusInternalServerError, `{"status":{"code":"50000","message":"internal"}}`
	})
	r := NewReranker(engine.NewClovaClient(srv.URL, "test-key", time.Second), "/rerank", nil)

	_, err := r.Rerank(context.Background(), "q", []RerankDoc{{ID: "a", Doc: "b"}})
	require.Error(t, err)
	var ue *engine.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "reranker", ue.Service)
	assert.Equal(t, http.StatusInternalServerError, ue.Status)
}

type stubEmbedder struct {
	calls int
	vec   []float64
}

func (s *stubEmbedder) Embed(context.Context, string) ([]float64, error) {
	s.calls++
	return s.vec, nil
}

func TestCachedEmbedder(t *testing.T) {
	engine.InitCache("", time.Minute, 100, time.Minute)
	next := &stubEmbedder{vec: []float64{1, 2}}
	c := CachedEmbedder{Next: next}

	for range 3 {
		v, err := c.Embed(context.Background(), "cached-embedder-test")
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2}, v)
	}
	assert.Equal(t, 1, next.calls)
}

