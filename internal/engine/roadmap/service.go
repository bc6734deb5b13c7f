package roadmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_roadmap/internal/engine"
	"github.com/anatolykoptev/go_roadmap/internal/engine/profiles"
)

// ErrUnknownUser is returned by Personalize for a user id missing from the active snapshot.
var ErrUnknownUser = fmt.Errorf("unknown user_id: %w", engine.ErrNotFound)

// Messages returned in place of a rerank answer when the request cannot be served.
const (
	AnswerUnknownUser = "Unknown user_id"
	AnswerMissingJob  = "Missing jobname"
)

// Result source values for Personalized.Source.
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

type (
	// ProfileSnapshots yields the snapshot active at request start.
	ProfileSnapshots interface {
		Current() *profiles.Snapshot
	}
	// Indexes resolves a job to its embedding collection.
	Indexes interface {
		Get(ctx context.Context, job string) (*Collection, error)
	}
	// Roadmaps resolves a job to its canonical tree.
	Roadmaps interface {
		Load(job string) (*Roadmap, error)
	}
	Embedding interface {
		Embed(ctx context.Context, text string) ([]float64, error)
	}
	Reranking interface {
		Rerank(ctx context.Context, query string, docs []RerankDoc) (*RerankResult, error)
	}
	Chat interface {
		Complete(ctx context.Context, system, prompt string) (string, error)
	}
)

// Deps are the collaborators of a Service.
type Deps struct {
	Profiles   ProfileSnapshots
	Indexes    Indexes
	Roadmaps   Roadmaps
	Embedder   Embedding
	Reranker   Reranking
	Chat       Chat
	DefaultJob string
}

// Service implements search, search-and-rerank and personalization. Each call
// performs at most one embedding, one reranker and one chat call, in sequence.
type Service struct {
	d Deps
}

func NewService(d Deps) *Service {
	if strings.TrimSpace(d.DefaultJob) == "" {
		d.DefaultJob = "machine learning"
	}
	return &Service{d: d}
}

// Snapshot returns the active profile snapshot. Callers that derive cache keys
// from its Version pass the same snapshot in SearchRequest so both agree.
func (s *Service) Snapshot() *profiles.Snapshot {
	return s.d.Profiles.Current()
}

// snapshot is the snapshot a request runs against: the one it carries, or the
// one active when it started. It is read once per request.
func (s *Service) snapshot(req SearchRequest) *profiles.Snapshot {
	if req.Snapshot != nil {
		return req.Snapshot
	}
	return s.d.Profiles.Current()
}

// SearchResult is one retrieved roadmap item.
type SearchResult struct {
	ID       string  `json:"id"`
	Content  string  `json:"content"`
	CareerID string  `json:"career_id"`
	Score    float64 `json:"score"`
}

// SearchRequest addresses one retrieval.
type SearchRequest struct {
	UserID string
	Job    string
	Query  string
	TopK   int
	// Snapshot pins the profiles to use; nil means the one active at call time.
	Snapshot *profiles.Snapshot
}

// Search returns the TopK items most similar to the user's profile query.
// Unknown users, a blank job and jobs without a corpus give an empty list.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	engine.IncrSearchRequests()
	p, ok := s.snapshot(req).Get(req.UserID)
	if !ok {
		slog.Debug("search: unknown user", slog.String("user_id", req.UserID))
		return []SearchResult{}, nil
	}
	hits, err := s.retrieve(ctx, p, req)
	if err != nil {
		return nil, err
	}
	out := make([]SearchResult, len(hits))
	for i, h := range hits {
		out[i] = SearchResult{ID: h.DocID, Content: h.Text, CareerID: h.CareerID, Score: h.Score}
	}
	return out, nil
}

// retrieve embeds the query for an already resolved profile p.
func (s *Service) retrieve(ctx context.Context, p profiles.Profile, req SearchRequest) ([]Hit, error) {
	job := strings.TrimSpace(req.Job)
	if job == "" {
		return []Hit{}, nil
	}

	col, err := s.d.Indexes.Get(ctx, job)
	if errors.Is(err, engine.ErrNotFound) {
		slog.Debug("search: no corpus", slog.String("job", job))
		return []Hit{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	vec, err := s.d.Embedder.Embed(ctx, BuildQuery(p, req.Query))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return col.TopK(vec, req.TopK), nil
}

// SearchRerank retrieves like Search and passes the hits to the reranker.
// Unknown users and a blank job are reported in Answer with no documents.
func (s *Service) SearchRerank(ctx context.Context, req SearchRequest) (*RerankResult, error) {
	engine.IncrRerankRequests()
	empty := func(answer string) *RerankResult {
		return &RerankResult{Answer: answer, Documents: []RankedDoc{}, Raw: json.RawMessage(`{}`)}
	}

	p, ok := s.snapshot(req).Get(req.UserID)
	if !ok {
		return empty(AnswerUnknownUser), nil
	}
	if strings.TrimSpace(req.Job) == "" {
		return empty(AnswerMissingJob), nil
	}

	hits, err := s.retrieve(ctx, p, req)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return empty(""), nil
	}

	docs := make([]RerankDoc, len(hits))
	for i, h := range hits {
		docs[i] = RerankDoc{ID: h.DocID, Doc: h.Text}
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		query = BuildQuery(p, "")
	}
	res, err := s.d.Reranker.Rerank(ctx, query, docs)
	if err != nil {
		return nil, fmt.Errorf("search_rerank: %w", err)
	}
	return res, nil
}

// Personalized is a canonical roadmap annotated for one user.
type Personalized struct {
	UserID      string   `json:"user_id"`
	Job         string   `json:"job"`
	Source      string   `json:"source"`
	RepairStage string   `json:"repair_stage"`
	Annotated   int      `json:"annotated_items"`
	Roadmap     *Roadmap `json:"roadmap"`
}

// Personalize asks the chat model to annotate the job's canonical roadmap for
// the user and merges the answer onto the canonical tree. A blank job uses the
// default job. When the answer cannot be repaired into a roadmap object every
// item gets the default record and Source is "fallback".
func (s *Service) Personalize(ctx context.Context, userID, job string) (*Personalized, error) {
	engine.IncrPersonalizeRequests()

	p, ok := s.d.Profiles.Current().Get(userID)
	if !ok {
		return nil, ErrUnknownUser
	}
	job = strings.TrimSpace(job)
	if job == "" {
		job = s.d.DefaultJob
	}
	canonical, err := s.d.Roadmaps.Load(job)
	if err != nil {
		return nil, err
	}

	prompt, err := PersonalizePrompt(ProfileText(p), canonical)
	if err != nil {
		return nil, fmt.Errorf("personalize: %w", err)
	}

	var answer string
	err = engine.TrackOperation(ctx, "personalize_chat", func(ctx context.Context) error {
		var cerr error
		answer, cerr = s.d.Chat.Complete(ctx, PersonalizeSystemPrompt, prompt)
		return cerr
	})
	if err != nil {
		return nil, fmt.Errorf("personalize: %w", err)
	}

	rep := Repair(answer)
	engine.IncrRepairStage(rep.State.String())

	out := &Personalized{UserID: userID, Job: job, RepairStage: rep.State.String()}
	var cand *Candidate
	if rep.OK() {
		cand, ok = ParseCandidate(rep.Value)
	}
	if !rep.OK() || !ok {
		engine.IncrPersonalizeFallback()
		slog.Warn("personalize: model output unusable, returning defaults",
			slog.String("user_id", userID),
			slog.String("job", job),
			slog.String("repair_stage", rep.State.String()),
			slog.String("raw", engine.TruncateRunes(rep.Raw, 300, "...")),
		)
		out.Source = SourceFallback
		out.Roadmap = DefaultPersonalized(canonical)
		return out, nil
	}

	out.Source = SourceModel
	out.Roadmap = Merge(canonical, cand)
	out.Annotated = annotatedCount(canonical, cand)
	slog.Info("personalize: merged",
		slog.String("user_id", userID),
		slog.String("job", job),
		slog.String("repair_stage", rep.State.String()),
		slog.Int("annotated", out.Annotated),
		slog.Int("candidate_items", cand.Len()),
	)
	return out, nil
}

// annotatedCount is the number of canonical items the candidate said something about.
func annotatedCount(canonical *Roadmap, cand *Candidate) int {
	n := 0
	for _, id := range canonical.ItemIDs() {
		if _, ok := cand.Items[id]; ok && id != "" {
			n++
		}
	}
	return n
}
