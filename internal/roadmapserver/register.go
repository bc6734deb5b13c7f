// Package roadmapserver exposes the roadmap service as MCP tools and REST routes.
package roadmapserver

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_roadmap/internal/engine"
	"github.com/anatolykoptev/go_roadmap/internal/engine/profiles"
	"github.com/anatolykoptev/go_roadmap/internal/engine/roadmap"
	"github.com/anatolykoptev/go_roadmap/internal/toolutil"
)

// Server binds the service and its stores to the request surfaces.
type Server struct {
	svc      *roadmap.Service
	profiles *profiles.Store
	indexes  *roadmap.IndexSet
}

func New(svc *roadmap.Service, store *profiles.Store, indexes *roadmap.IndexSet) *Server {
	return &Server{svc: svc, profiles: store, indexes: indexes}
}

// SearchOutput is the roadmap_search result.
type SearchOutput struct {
	Results []roadmap.SearchResult `json:"results"`
}

// ReloadOutput reports the snapshot installed by profiles_reload.
type ReloadOutput struct {
	Version  uint64 `json:"version"`
	Profiles int    `json:"profiles"`
}

// RegisterTools registers roadmap_search, roadmap_search_rerank,
// roadmap_personalize and profiles_reload on the MCP server.
func (s *Server) RegisterTools(server *mcp.Server) {
	s.registerSearch(server)
	s.registerSearchRerank(server)
	s.registerPersonalize(server)
	s.registerProfilesReload(server)
}

// search and searchRerank read the profile snapshot once; the cache key and the
// computation both use that same snapshot.
func (s *Server) search(ctx context.Context, in engine.RoadmapSearchInput) (SearchOutput, error) {
	topK := toolutil.NormTopK(in.TopK, toolutil.DefaultSearchTopK)
	snap := s.svc.Snapshot()
	key := toolutil.SearchKey("roadmap_search", snap.Version, in.UserID, in.Jobname, in.Query, topK)
	return toolutil.Cached(ctx, key, func() (SearchOutput, error) {
		res, err := s.svc.Search(ctx, roadmap.SearchRequest{
			UserID:   in.UserID,
			Job:      in.Jobname,
			Query:    in.Query,
			TopK:     topK,
			Snapshot: snap,
		})
		return SearchOutput{Results: res}, err
	})
}

func (s *Server) searchRerank(ctx context.Context, in engine.RoadmapRerankInput) (*roadmap.RerankResult, error) {
	topK := toolutil.NormTopK(in.TopK, toolutil.DefaultRerankTopK)
	snap := s.svc.Snapshot()
	key := toolutil.SearchKey("roadmap_search_rerank", snap.Version, in.UserID, in.Jobname, in.Query, topK)
	return toolutil.Cached(ctx, key, func() (*roadmap.RerankResult, error) {
		return s.svc.SearchRerank(ctx, roadmap.SearchRequest{
			UserID:   in.UserID,
			Job:      in.Jobname,
			Query:    in.Query,
			TopK:     topK,
			Snapshot: snap,
		})
	})
}

func (s *Server) reload(ctx context.Context) (ReloadOutput, error) {
	snap, err := s.profiles.Rebuild(ctx)
	if err != nil {
		return ReloadOutput{}, err
	}
	return ReloadOutput{Version: snap.Version, Profiles: snap.Len()}, nil
}

// notFoundMessage renders the user-facing text of a not-found personalization.
func notFoundMessage(err error, job string) string {
	if errors.Is(err, roadmap.ErrUnknownUser) {
		return roadmap.AnswerUnknownUser
	}
	if strings.TrimSpace(job) == "" {
		return "Roadmap for the default job not found"
	}
	return "Roadmap file for job '" + strings.TrimSpace(job) + "' not found"
}
