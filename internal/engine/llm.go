package engine

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

type completer interface {
	complete(ctx context.Context, system, prompt string, temperature float64, maxTokens int) (string, error)
}

type llmCompleter struct{ c *llm.Client }

func (l llmCompleter) complete(ctx context.Context, system, prompt string, temperature float64, maxTokens int) (string, error) {
	return l.c.Complete(ctx, system, prompt,
		llm.WithChatTemperature(temperature),
		llm.WithChatMaxTokens(maxTokens),
	)
}

// ChatClient sends system+user prompts to an OpenAI-compatible chat endpoint.
type ChatClient struct {
	client      completer
	temperature float64
	maxTokens   int
}

// NewChatClient builds a client from the LLM_* settings in cfg.
func NewChatClient(cfg Config) *ChatClient {
	c := llm.NewClient(cfg.LLMAPIBase, cfg.LLMAPIKey, cfg.LLMModel,
		llm.WithFallbackKeys(cfg.LLMAPIKeyFallbacks),
		llm.WithMaxTokens(cfg.LLMMaxTokens),
		llm.WithTemperature(cfg.LLMTemperature),
		llm.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
	)
	return &ChatClient{client: llmCompleter{c}, temperature: cfg.LLMTemperature, maxTokens: cfg.LLMMaxTokens}
}

// Complete returns the model's reply to one system+user exchange.
func (c *ChatClient) Complete(ctx context.Context, system, user string) (string, error) {
	metrics.LLMCalls.Add(1)
	resp, err := c.client.complete(ctx, system, user, c.temperature, c.maxTokens)
	if err != nil {
		metrics.LLMErrors.Add(1)
		return "", err
	}
	return stripFences(resp), nil
}

// stripFences removes a markdown code fence wrapping the whole reply.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimPrefix(s, "```markdown")
	s = strings.TrimPrefix(s, "```")
	return strings.TrimSpace(s)
}
