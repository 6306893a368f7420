package core

import "context"

// EmbeddingProvider maps text to fixed-length vectors. Implementations must
// return vectors in input order, one per input.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// LLMProvider turns a prompt pair into prose. The output is opaque to the
// rest of the system.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}
