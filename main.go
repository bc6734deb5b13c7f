// go_roadmap: personalized learning-roadmap MCP server.
//
// Exposes four MCP tools: roadmap_search, roadmap_search_rerank,
// roadmap_personalize and profiles_reload. The same operations are served
// over REST when REST_PORT is set.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_roadmap/internal/engine"
	"github.com/anatolykoptev/go_roadmap/internal/engine/profiles"
	"github.com/anatolykoptev/go_roadmap/internal/engine/roadmap"
	"github.com/anatolykoptev/go_roadmap/internal/roadmapserver"
)

var version = "dev"

func main() {
	// Missing files are fine; the real environment wins over both.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")
	setLogLevel(env.Str("LOG_LEVEL", "info"))

	c := initEngine()
	ctx := context.Background()

	src, closeSrc, err := openProfileSource(ctx, c.DataDir)
	if err != nil {
		slog.Error("profile source init failed", slog.Any("error", err))
		return
	}
	defer closeSrc()

	store := profiles.NewStore(src)
	if _, err := store.Rebuild(ctx); err != nil {
		// Serve with an empty snapshot; profiles_reload can recover later.
		slog.Error("initial profile load failed", slog.String("source", src.Name()), slog.Any("error", err))
	}
	if every := env.Duration("PROFILE_REFRESH", 0); every > 0 {
		go store.RunRefresh(ctx, every)
	}

	indexes := roadmap.NewIndexSet(c.EmbeddingsDir)
	if jobs := env.List("INDEX_PRELOAD", ""); len(jobs) > 0 {
		if err := indexes.Preload(ctx, jobs); err != nil {
			slog.Warn("index preload failed", slog.Any("error", err))
		}
	}

	pacer := engine.NewPacer(c)
	embedClient := engine.NewClovaClient(c.ClovaBaseURL, c.ClovaAPIKey, c.EmbeddingTimeout)
	rerankClient := engine.NewClovaClient(c.ClovaBaseURL, c.ClovaAPIKey, c.RerankerTimeout)
	if !embedClient.HasKey() {
		slog.Warn("NCP_API_KEY not set, search and personalization will fail")
	}

	svc := roadmap.NewService(roadmap.Deps{
		Profiles:   store,
		Indexes:    indexes,
		Roadmaps:   roadmap.CanonicalStore{Dir: c.RoadmapDir},
		Embedder:   roadmap.CachedEmbedder{Next: roadmap.NewEmbedder(embedClient, c.EmbeddingPath, pacer)},
		Reranker:   roadmap.NewReranker(rerankClient, c.RerankerPath, pacer),
		Chat:       engine.NewChatClient(c),
		DefaultJob: c.DefaultJob,
	})
	srv := roadmapserver.New(svc, store, indexes)

	if port := env.Str("REST_PORT", ""); port != "" {
		go serveREST(port, srv.Routes())
	}

	mcpPort := env.Str("MCP_PORT", "8892")
	slog.Info("starting go_roadmap",
		slog.String("port", mcpPort),
		slog.String("profiles", src.Name()),
		slog.Int("profile_count", store.Current().Len()),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_roadmap",
		Version: version,
	}, nil)
	srv.RegisterTools(server)
	slog.Info("tools registered", slog.Int("count", 4))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_roadmap",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 300 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() engine.Config {
	dataDir := env.Str("DATA_DIR", "./data")
	c := engine.Config{
		ClovaAPIKey:          env.Str("NCP_API_KEY", ""),
		ClovaBaseURL:         env.Str("CLOVA_BASE_URL", "https://clovastudio.stream.ntruss.com"),
		EmbeddingPath:        env.Str("EMBEDDING_PATH", "/v1/api-tools/embedding/v2"),
		RerankerPath:         env.Str("RERANKER_PATH", "/v1/api-tools/reranker"),
		LLMAPIBase:           env.Str("LLM_API_BASE", "https://clovastudio.stream.ntruss.com/v1/openai"),
		LLMModel:             env.Str("LLM_MODEL", "HCX-007"),
		LLMTemperature:       env.Float("LLM_TEMPERATURE", 0.3),
		LLMMaxTokens:         env.Int("LLM_MAX_TOKENS", 20480),
		EmbeddingTimeout:     env.Duration("EMBEDDING_TIMEOUT", 60*time.Second),
		RerankerTimeout:      env.Duration("RERANKER_TIMEOUT", 60*time.Second),
		ChatTimeout:          env.Duration("CHAT_TIMEOUT", 120*time.Second),
		DataDir:              dataDir,
		RoadmapDir:           env.Str("ROADMAP_DIR", filepath.Join(dataDir, "roadmaps")),
		EmbeddingsDir:        env.Str("EMBEDDINGS_DIR", filepath.Join(dataDir, "embeddings")),
		DefaultJob:           env.Str("DEFAULT_JOB", "machine learning"),
		PaceMode:             env.Str("PACE_MODE", "random"),
		PaceMin:              env.Duration("PACE_MIN", 300*time.Millisecond),
		PaceMax:              env.Duration("PACE_MAX", 700*time.Millisecond),
		PaceRPS:              env.Float("PACE_RPS", 2),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
	}
	cacheTTL := env.Duration("CACHE_TTL", 15*time.Minute)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
	return c
}

// openProfileSource picks the backend named by PROFILE_SOURCE.
// The returned func releases its connections.
func openProfileSource(ctx context.Context, dataDir string) (profiles.Source, func(), error) {
	noop := func() {}
	switch kind := env.Str("PROFILE_SOURCE", "json"); kind {
	case "json":
		path := env.Str("PROFILES_PATH", filepath.Join(dataDir, "users", "users.json"))
		return profiles.JSONFileSource{Path: path}, noop, nil
	case "postgres":
		src, err := profiles.ConnectPostgres(ctx, env.Str("DATABASE_URL", ""))
		if err != nil {
			return nil, noop, err
		}
		return src, src.Close, nil
	case "sqlite":
		src, err := profiles.OpenSQLite(env.Str("SQLITE_PATH", filepath.Join(dataDir, "profiles.db")))
		if err != nil {
			return nil, noop, err
		}
		return src, func() { _ = src.Close() }, nil
	case "mongo":
		src, err := profiles.ConnectMongo(ctx, env.Str("MONGO_URI", "mongodb://localhost:27017"), env.Str("MONGO_DB", "clova_db"))
		if err != nil {
			return nil, noop, err
		}
		return src, func() { _ = src.Close(context.Background()) }, nil
	default:
		return nil, noop, errors.New("unknown PROFILE_SOURCE " + kind + " (want json, postgres, sqlite or mongo)")
	}
}

func serveREST(port string, h http.Handler) {
	s := &http.Server{
		Addr:              ":" + port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      300 * time.Second,
	}
	slog.Info("rest: listening", slog.String("port", port))
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("rest: server failed", slog.Any("error", err))
	}
}

func setLogLevel(s string) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		slog.Warn("invalid LOG_LEVEL, using info", slog.String("value", s))
		return
	}
	slog.SetLogLoggerLevel(level)
}
