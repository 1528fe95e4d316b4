package ai

import (
	"context"
)

// EmbeddingProvider maps text to a fixed-length vector.
// Implement this interface to add new embedding backends.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	// Dimension is the length of every vector returned by Embed.
	Dimension() int
	Name() string
}

// ProviderType represents the embedding backend
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
