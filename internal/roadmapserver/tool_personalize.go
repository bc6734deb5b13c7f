package roadmapserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_roadmap/internal/engine"
	"github.com/anatolykoptev/go_roadmap/internal/engine/roadmap"
)

// PersonalizeOutput is the roadmap_personalize result. The tree is carried as a
// plain JSON object so the tool's output schema does not depend on roadmap file variants.
type PersonalizeOutput struct {
	UserID      string         `json:"user_id"`
	Job         string         `json:"job"`
	Source      string         `json:"source"`
	RepairStage string         `json:"repair_stage"`
	Annotated   int            `json:"annotated_items"`
	Roadmap     map[string]any `json:"roadmap"`
}

func toPersonalizeOutput(p *roadmap.Personalized) (*PersonalizeOutput, error) {
	data, err := json.Marshal(p.Roadmap)
	if err != nil {
		return nil, fmt.Errorf("encode roadmap: %w", err)
	}
	out := &PersonalizeOutput{
		UserID:      p.UserID,
		Job:         p.Job,
		Source:      p.Source,
		RepairStage: p.RepairStage,
		Annotated:   p.Annotated,
	}
	if err := json.Unmarshal(data, &out.Roadmap); err != nil {
		return nil, fmt.Errorf("encode roadmap: %w", err)
	}
	return out, nil
}

func (s *Server) registerPersonalize(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "roadmap_personalize",
		Description: "Personalize a job's canonical learning roadmap for a student. Every item gets check (already mastered) and a personalization record (status, priority, personalized_description, reason). The roadmap structure is never changed; when the model answer is unusable all items get default records and source is fallback.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.RoadmapPersonalizeInput) (*mcp.CallToolResult, *PersonalizeOutput, error) {
		if input.UserID == "" {
			return nil, nil, errors.New("user_id is required")
		}
		out, err := s.svc.Personalize(ctx, input.UserID, input.Jobname)
		if errors.Is(err, engine.ErrNotFound) {
			return nil, nil, errors.New(notFoundMessage(err, input.Jobname))
		}
		if err != nil {
			return nil, nil, err
		}
		res, err := toPersonalizeOutput(out)
		if err != nil {
			return nil, nil, err
		}
		return nil, res, nil
	})
}

func (s *Server) registerProfilesReload(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "profiles_reload",
		Description: "Reload all student profiles from the profile source and swap in a new snapshot. Requests already running keep the snapshot they started with.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ engine.ProfilesReloadInput) (*mcp.CallToolResult, ReloadOutput, error) {
		out, err := s.reload(ctx)
		if err != nil {
			return nil, ReloadOutput{}, err
		}
		return nil, out, nil
	})
}
