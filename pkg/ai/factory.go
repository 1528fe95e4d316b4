package ai

import (
	"fmt"
	"log"
)

// Config holds embedding provider configuration
type Config struct {
	Provider  ProviderType // openai, gemini, ollama or auto
	Dimension int          // used by openai and ollama; gemini is fixed

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	GeminiAPIKey string

	// Ollama settings are read through getters so they can change at runtime
	OllamaBaseURL func() string
	OllamaModel   func() string

	// Fallback names a second backend tried on quota or connection errors
	Fallback ProviderType
}

// NewEmbeddingProvider creates the backend selected by cfg.Provider.
// The returned provider is not rate limited.
func NewEmbeddingProvider(cfg Config) (EmbeddingProvider, error) {
	primary, err := newBackend(cfg, resolveAuto(cfg))
	if err != nil {
		return nil, err
	}
	if cfg.Fallback == "" || string(cfg.Fallback) == primary.Name() {
		return primary, nil
	}

	secondary, err := newBackend(cfg, cfg.Fallback)
	if err != nil {
		log.Printf("[Embedding] fallback %s disabled: %v", cfg.Fallback, err)
		return primary, nil
	}
	fallback, err := NewFallbackProvider(primary, secondary)
	if err != nil {
		log.Printf("[Embedding] fallback disabled: %v", err)
		return primary, nil
	}
	return fallback, nil
}

func resolveAuto(cfg Config) ProviderType {
	if cfg.Provider != ProviderAuto && cfg.Provider != "" {
		return cfg.Provider
	}
	switch {
	case cfg.OpenAIAPIKey != "":
		return ProviderOpenAI
	case cfg.GeminiAPIKey != "":
		return ProviderGemini
	default:
		return ProviderOllama
	}
}

func newBackend(cfg Config, provider ProviderType) (EmbeddingProvider, error) {
	switch provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.Dimension), nil

	case ProviderGemini:
		return NewGeminiEmbedder(cfg.GeminiAPIKey)

	case ProviderOllama:
		if cfg.OllamaBaseURL == nil || cfg.OllamaModel == nil {
			return NewOllamaEmbedder("", "", cfg.Dimension), nil
		}
		return NewOllamaEmbedderWithGetters(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.Dimension), nil

	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}
