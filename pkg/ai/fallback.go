package ai

import (
	"context"
	"fmt"
	"log"
)

// FallbackProvider uses the primary backend and switches to the secondary
// when the primary is unreachable or out of quota. Both must serve the same
// model so vectors from either one compare with the stored embeddings.
// A typical pairing is an OpenAI-compatible server and Ollama running the
// same open model.
type FallbackProvider struct {
	primary   EmbeddingProvider
	secondary EmbeddingProvider
}

func NewFallbackProvider(primary, secondary EmbeddingProvider) (*FallbackProvider, error) {
	if primary.Dimension() != secondary.Dimension() {
		return nil, fmt.Errorf("fallback %s has dimension %d, primary %s has %d",
			secondary.Name(), secondary.Dimension(), primary.Name(), primary.Dimension())
	}
	if !sameModel(primary, secondary) {
		return nil, fmt.Errorf("fallback %s serves model %q, primary %s serves %q",
			secondary.Name(), modelOf(secondary), primary.Name(), modelOf(primary))
	}
	return &FallbackProvider{primary: primary, secondary: secondary}, nil
}

func (f *FallbackProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	vec, err := f.primary.Embed(ctx, text)
	if err == nil {
		return vec, nil
	}
	if !IsQuotaError(err) && !IsConnectionError(err) {
		return nil, err
	}
	// The Ollama model can be switched at runtime.
	if !sameModel(f.primary, f.secondary) {
		log.Printf("[Embedding] %s unavailable (%s) and %s now serves %q, not falling back",
			f.primary.Name(), reason(err), f.secondary.Name(), modelOf(f.secondary))
		return nil, err
	}

	log.Printf("[Embedding] %s unavailable (%s): %v, falling back to %s",
		f.primary.Name(), reason(err), err, f.secondary.Name())
	return f.secondary.Embed(ctx, text)
}

func (f *FallbackProvider) Dimension() int { return f.primary.Dimension() }

func (f *FallbackProvider) Name() string {
	return f.primary.Name() + "+" + f.secondary.Name()
}

func (f *FallbackProvider) Model() string { return modelOf(f.primary) }

// modelOf is the model id of p, or its backend name when p does not
// report one.
func modelOf(p EmbeddingProvider) string {
	if m, ok := p.(interface{ Model() string }); ok && m.Model() != "" {
		return m.Model()
	}
	return p.Name()
}

func sameModel(a, b EmbeddingProvider) bool {
	return modelOf(a) == modelOf(b)
}
