package engine

// --- Tool inputs (shared by MCP tools and REST handlers) ---

type RoadmapSearchInput struct {
	UserID  string `json:"user_id" jsonschema:"Student user id"`
	Jobname string `json:"jobname,omitempty" jsonschema:"Job or career name (e.g. machine learning). Empty returns no results"`
	Query   string `json:"query,omitempty" jsonschema:"Optional free-text question appended to the profile query"`
	TopK    int    `json:"top_k,omitempty" jsonschema:"Number of roadmap items to return (default: 20, max: 100)"`
}

type RoadmapRerankInput struct {
	UserID  string `json:"user_id" jsonschema:"Student user id"`
	Jobname string `json:"jobname,omitempty" jsonschema:"Job or career name (e.g. machine learning)"`
	Query   string `json:"query" jsonschema:"Question the reranker judges the retrieved items against"`
	TopK    int    `json:"top_k,omitempty" jsonschema:"Number of items retrieved before reranking (default: 10, max: 100)"`
}

type RoadmapPersonalizeInput struct {
	UserID  string `json:"user_id" jsonschema:"Student user id"`
	Jobname string `json:"jobname,omitempty" jsonschema:"Job or career name; empty uses the configured default job"`
}

type ProfilesReloadInput struct{}
