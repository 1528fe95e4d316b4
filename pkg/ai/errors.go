package ai

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmbeddingUnavailable is returned for every embedding failure:
// transport, quota, cancellation or a malformed backend response.
var ErrEmbeddingUnavailable = errors.New("embedding unavailable")

func unavailable(provider string, err error) error {
	if errors.Is(err, ErrEmbeddingUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrEmbeddingUnavailable, provider, err)
}

// IsConnectionError reports whether err looks like an unreachable backend.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	return containsAny(err.Error(),
		"connection refused",
		"no such host",
		"dial tcp",
		"connection reset",
		"i/o timeout",
		"EOF",
	)
}

// IsQuotaError reports whether err looks like a rate or quota rejection.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	return containsAny(err.Error(),
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
		"resource_exhausted",
	)
}

func containsAny(s string, indicators ...string) bool {
	s = strings.ToLower(s)
	for _, indicator := range indicators {
		if strings.Contains(s, strings.ToLower(indicator)) {
			return true
		}
	}
	return false
}

// reason is a short label for logs.
func reason(err error) string {
	switch {
	case IsQuotaError(err):
		return "quota"
	case IsConnectionError(err):
		return "connection"
	default:
		return "error"
	}
}
