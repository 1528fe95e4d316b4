package ai

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
)

const DefaultOpenAIDimension = 1536

// OpenAIEmbedder calls the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
	dim    int

	// sent as "dimensions" when it differs from the model's native size
	requestDim int
}

// NewOpenAIEmbedder creates an embedder for text-embedding-3-small unless
// another model is given. baseURL may point at any compatible server.
func NewOpenAIEmbedder(apiKey, baseURL, model string, dim int) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	if dim <= 0 {
		dim = DefaultOpenAIDimension
	}
	requestDim := 0
	if dim != DefaultOpenAIDimension {
		requestDim = dim
	}
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(cfg),
		model:      openai.EmbeddingModel(model),
		dim:        dim,
		requestDim: requestDim,
	}
}

func (o *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      o.model,
		Dimensions: o.requestDim,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai returned no embeddings")
	}
	return toFloat64(resp.Data[0].Embedding), nil
}

func (o *OpenAIEmbedder) Dimension() int { return o.dim }

func (o *OpenAIEmbedder) Name() string { return string(ProviderOpenAI) }

func (o *OpenAIEmbedder) Model() string { return string(o.model) }

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, f := range in {
		out[i] = float64(f)
	}
	return out
}
