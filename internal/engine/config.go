package engine

import "time"

// Config holds all engine configuration. main builds it from the environment
// and hands it to the constructors that need it (NewPacer, NewChatClient).
type Config struct {
	ClovaAPIKey      string
	ClovaBaseURL     string
	EmbeddingPath    string
	RerankerPath     string
	LLMAPIBase       string
	LLMModel         string
	LLMTemperature   float64
	LLMMaxTokens     int
	EmbeddingTimeout time.Duration
	RerankerTimeout  time.Duration
	ChatTimeout      time.Duration

	DataDir       string
	RoadmapDir    string
	EmbeddingsDir string
	DefaultJob    string // used when a personalize request omits the job

	PaceMode string // random (default), limit, none
	PaceMin  time.Duration
	PaceMax  time.Duration
	PaceRPS  float64

	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
}
