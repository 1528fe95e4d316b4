package ai

import (
	"context"
	"fmt"
	"log"

	"crm-assistant-backend/pkg/ratelimit"
)

// RateLimitedProvider is the provider the rest of the service talks to.
// It prepares text, waits on the limiter, and turns every backend failure
// or wrong-length vector into ErrEmbeddingUnavailable.
type RateLimitedProvider struct {
	backend EmbeddingProvider
	limiter ratelimit.Limiter
}

func NewRateLimitedProvider(backend EmbeddingProvider, limiter ratelimit.Limiter) *RateLimitedProvider {
	if limiter == nil {
		limiter = ratelimit.Noop()
	}
	return &RateLimitedProvider{backend: backend, limiter: limiter}
}

func (p *RateLimitedProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, unavailable(p.Name(), err)
	}

	vec, err := p.backend.Embed(ctx, PrepareText(text))
	if err != nil {
		log.Printf("[Embedding] %s failed (%s): %v", p.Name(), reason(err), err)
		return nil, unavailable(p.Name(), err)
	}

	if dim := p.Dimension(); dim > 0 && len(vec) != dim {
		return nil, unavailable(p.Name(), fmt.Errorf("got %d dimensions, want %d", len(vec), dim))
	}
	return vec, nil
}

func (p *RateLimitedProvider) Dimension() int { return p.backend.Dimension() }

func (p *RateLimitedProvider) Name() string { return p.backend.Name() }
