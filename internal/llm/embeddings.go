package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// EmbeddingsClient produces embedding vectors through an OpenAI-compatible
// embeddings API.
type EmbeddingsClient struct {
	Model        string
	ExpectedSize int // Expected vector size for validation; 0 disables the check
	client       *openai.Client
}

// NewEmbeddingsClient creates a new embeddings client.
// expectedSize is the vector size the index was built for; every returned
// vector is validated against it.
func NewEmbeddingsClient(baseURL, apiKey, model string, expectedSize int) *EmbeddingsClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = strings.TrimSuffix(baseURL, "/") + "/v1"
		}
		cfg.BaseURL = baseURL
	}
	return &EmbeddingsClient{
		Model:        model,
		ExpectedSize: expectedSize,
		client:       openai.NewClientWithConfig(cfg),
	}
}

// EmbedTexts generates embeddings for the given texts, one vector per input,
// in input order.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.Model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		if c.ExpectedSize > 0 && len(d.Embedding) != c.ExpectedSize {
			return nil, fmt.Errorf("embedding vector size mismatch: expected %d, got %d", c.ExpectedSize, len(d.Embedding))
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
