package engine

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// ChatClient sends one system + user exchange to the chat-completion service
// (CLOVA Studio's OpenAI-compatible endpoint by default).
// The response is returned untouched apart from outer whitespace; repairing it is the caller's job.
type ChatClient struct {
	client      *llm.Client
	apiKey      string
	temperature float64
	maxTokens   int
}

// NewChatClient builds a chat client from the engine config.
func NewChatClient(c Config) *ChatClient {
	timeout := c.ChatTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &ChatClient{
		client: llm.NewClient(c.LLMAPIBase, c.ClovaAPIKey, c.LLMModel,
			llm.WithMaxTokens(c.LLMMaxTokens),
			llm.WithTemperature(c.LLMTemperature),
			llm.WithHTTPClient(&http.Client{Timeout: timeout}),
		),
		apiKey:      c.ClovaAPIKey,
		temperature: c.LLMTemperature,
		maxTokens:   c.LLMMaxTokens,
	}
}

// Complete returns the model's free-text answer.
func (c *ChatClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ConfigError("NCP_API_KEY")
	}
	metrics.LLMCalls.Add(1)
	resp, err := c.client.Complete(ctx, system, prompt,
		llm.WithChatTemperature(c.temperature),
		llm.WithChatMaxTokens(c.maxTokens),
	)
	if err != nil {
		metrics.LLMErrors.Add(1)
		return "", &UpstreamError{Service: "chat", Err: err}
	}
	return strings.TrimSpace(resp), nil
}
