package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "nomic-embed-text"

	// DefaultOllamaDimension matches nomic-embed-text.
	DefaultOllamaDimension = 768
)

// OllamaEmbedder calls a local Ollama server's /api/embed endpoint.
type OllamaEmbedder struct {
	getBaseURL func() string // Dynamic getter for BaseURL
	getModel   func() string // Dynamic getter for Model
	dim        int
	client     *http.Client
}

// NewOllamaEmbedder creates an embedder with a fixed server and model
func NewOllamaEmbedder(baseURL, model string, dim int) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if model == "" {
		model = defaultOllamaModel
	}
	return NewOllamaEmbedderWithGetters(
		func() string { return baseURL },
		func() string { return model },
		dim,
	)
}

// NewOllamaEmbedderWithGetters creates an embedder whose server and model
// can change at runtime.
func NewOllamaEmbedderWithGetters(getBaseURL, getModel func() string, dim int) *OllamaEmbedder {
	if dim <= 0 {
		dim = DefaultOllamaDimension
	}
	return &OllamaEmbedder{
		getBaseURL: getBaseURL,
		getModel:   getModel,
		dim:        dim,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	url := o.getBaseURL() + "/api/embed"

	body, err := json.Marshal(map[string]interface{}{
		"model": o.getModel(),
		"input": text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Embeddings [][]float64 `json:"embeddings"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("ollama returned no embeddings")
	}

	return result.Embeddings[0], nil
}

func (o *OllamaEmbedder) Dimension() int { return o.dim }

func (o *OllamaEmbedder) Name() string { return string(ProviderOllama) }

func (o *OllamaEmbedder) Model() string { return o.getModel() }
