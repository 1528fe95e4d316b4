package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/amikos-tech/chroma-go/pkg/embeddings/gemini"
)

const (
	geminiEmbeddingModel = "text-embedding-004"
	GeminiDimension      = 768
)

// GeminiEmbedder wraps the chroma-go Gemini embedding function.
type GeminiEmbedder struct {
	fn *gemini.GeminiEmbeddingFunction
}

func NewGeminiEmbedder(apiKey string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required for Gemini provider")
	}
	fn, err := gemini.NewGeminiEmbeddingFunction(
		gemini.WithAPIKey(apiKey),
		gemini.WithDefaultModel(geminiEmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini embedding function: %w", err)
	}
	return &GeminiEmbedder{fn: fn}, nil
}

func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	emb, err := g.fn.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	if emb == nil {
		return nil, errors.New("gemini returned no embedding")
	}
	return toFloat64(emb.ContentAsFloat32()), nil
}

func (g *GeminiEmbedder) Dimension() int { return GeminiDimension }

func (g *GeminiEmbedder) Name() string { return string(ProviderGemini) }

func (g *GeminiEmbedder) Model() string { return geminiEmbeddingModel }
