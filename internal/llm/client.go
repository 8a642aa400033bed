package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Client implements Generator against any OpenAI-compatible chat
// completions API (OpenAI, llama.cpp server, vLLM).
type Client struct {
	Model  string
	client *openai.Client
}

// NewClient creates a new generation client. baseURL is the server root;
// the "/v1" path segment is appended when missing so both
// "http://localhost:8080" and a full OpenAI-style URL work.
func NewClient(baseURL, apiKey, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = strings.TrimSuffix(baseURL, "/") + "/v1"
		}
		cfg.BaseURL = baseURL
	}
	return &Client{
		Model:  model,
		client: openai.NewClientWithConfig(cfg),
	}
}

// Generate sends a single completion request. One attempt, no retries;
// failures are meant to route the caller onto its fallback path.
func (c *Client) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
		MaxTokens:   cfg.MaxOutputTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
