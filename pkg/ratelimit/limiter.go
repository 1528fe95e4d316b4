package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultRequests = 8
	DefaultWindow   = time.Minute
)

// Limiter gates calls to a rate-limited upstream.
type Limiter interface {
	// Wait blocks until a call may proceed or ctx is done.
	Wait(ctx context.Context) error
}

// TokenBucket allows `requests` calls per `window`, refilling continuously.
type TokenBucket struct {
	limiter *rate.Limiter
}

func NewTokenBucket(requests int, window time.Duration) *TokenBucket {
	if requests <= 0 {
		requests = DefaultRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &TokenBucket{
		limiter: rate.NewLimiter(rate.Every(window/time.Duration(requests)), requests),
	}
}

// Wait reserves a token. A cancelled wait gives its reservation back.
func (t *TokenBucket) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

type noop struct{}

func (noop) Wait(ctx context.Context) error {
	return ctx.Err()
}

// Noop never throttles.
func Noop() Limiter {
	return noop{}
}
