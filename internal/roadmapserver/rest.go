package roadmapserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/anatolykoptev/go_roadmap/internal/engine"
)

type errorBody struct {
	Error string `json:"error"`
}

// Routes returns the REST surface:
//
//	POST /search/                retrieval (top_k default 20)
//	POST /search_rerank/         retrieval + rerank (top_k default 10)
//	POST /roadmap/personalized   personalized canonical tree
//	POST /profiles/reload        rebuild the profile snapshot
//	GET  /health
//
// top_k is capped at toolutil.MaxTopK (100) and then at the corpus size.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/search/", s.handleSearch)
	r.Post("/search_rerank/", s.handleSearchRerank)
	r.Post("/roadmap/personalized", s.handlePersonalize)
	r.Post("/profiles/reload", s.handleReload)
	r.Get("/health", s.handleHealth)
	return r
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var in engine.RoadmapSearchInput
	if !decodeBody(w, r, &in) {
		return
	}
	out, err := s.search(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSearchRerank(w http.ResponseWriter, r *http.Request) {
	var in engine.RoadmapRerankInput
	if !decodeBody(w, r, &in) {
		return
	}
	out, err := s.searchRerank(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handlePersonalize answers with the merged tree itself; whether it came from
// the model or the fallback is reported in X-Personalization-Source.
func (s *Server) handlePersonalize(w http.ResponseWriter, r *http.Request) {
	var in engine.RoadmapPersonalizeInput
	if !decodeBody(w, r, &in) {
		return
	}
	out, err := s.svc.Personalize(r.Context(), in.UserID, in.Jobname)
	if errors.Is(err, engine.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: notFoundMessage(err, in.Jobname)})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("X-Personalization-Source", out.Source)
	w.Header().Set("X-Repair-Stage", out.RepairStage)
	writeJSON(w, http.StatusOK, out.Roadmap)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	out, err := s.reload(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := s.profiles.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"profiles":         snap.Len(),
		"snapshot_version": snap.Version,
		"indexes":          s.indexes.Jobs(),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

// writeError maps the engine error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrConfig):
		status = http.StatusServiceUnavailable
	case errors.Is(err, engine.ErrUpstream):
		status = http.StatusBadGateway
	case errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	}
	slog.Warn("rest: request failed", slog.Int("status", status), slog.Any("error", err))
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("rest: write response", slog.Any("error", err))
	}
}
