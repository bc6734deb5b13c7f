package roadmapserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_roadmap/internal/engine"
	"github.com/anatolykoptev/go_roadmap/internal/engine/roadmap"
)

// RerankOutput is the roadmap_search_rerank result. Raw is typed as any so the
// output schema accepts whatever object the reranker sent; it still holds the
// verbatim response bytes.
type RerankOutput struct {
	Answer    string              `json:"answer"`
	Documents []roadmap.RankedDoc `json:"documents"`
	Raw       any                 `json:"reranker_raw"`
}

func (s *Server) registerSearch(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "roadmap_search",
		Description: "Find the roadmap items most relevant to a student. Builds a query from the student's profile (plus an optional question), embeds it and returns the top_k most similar items of the job's roadmap corpus with their similarity score. Unknown users or jobs return an empty list.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.RoadmapSearchInput) (*mcp.CallToolResult, SearchOutput, error) {
		if input.UserID == "" {
			return nil, SearchOutput{}, errors.New("user_id is required")
		}
		out, err := s.search(ctx, input)
		if err != nil {
			return nil, SearchOutput{}, err
		}
		return nil, out, nil
	})
}

func (s *Server) registerSearchRerank(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "roadmap_search_rerank",
		Description: "Retrieve the student's most relevant roadmap items like roadmap_search, then ask the CLOVA reranker to judge them against the question. Returns the reranker's answer, the candidate documents marked with whether they were cited, and the raw reranker response.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.RoadmapRerankInput) (*mcp.CallToolResult, *RerankOutput, error) {
		if input.UserID == "" {
			return nil, nil, errors.New("user_id is required")
		}
		if input.Query == "" {
			return nil, nil, errors.New("query is required")
		}
		out, err := s.searchRerank(ctx, input)
		if err != nil {
			return nil, nil, err
		}
		return nil, &RerankOutput{Answer: out.Answer, Documents: out.Documents, Raw: out.Raw}, nil
	})
}
