package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_generator.go -package=mocks docqa/internal/llm Generator

import "context"

// GenerationConfig holds sampling parameters for a generation request.
type GenerationConfig struct {
	// Temperature controls sampling randomness. Lower is more deterministic.
	Temperature float32
	// TopP is the nucleus sampling cutoff.
	TopP float32
	// TopK truncates sampling to the K most likely tokens. Ignored by
	// OpenAI-compatible backends, which do not expose it.
	TopK int
	// MaxOutputTokens is a hard cap on the generated length.
	MaxOutputTokens int
}

// Generator is a black-box text completion service. A single prompt in, a
// single completion out; any failure is returned as an error and it is the
// caller's job to degrade gracefully.
type Generator interface {
	Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error)
}
