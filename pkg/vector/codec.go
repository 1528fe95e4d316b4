package vector

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedEmbedding is returned when a stored embedding cannot be used.
var ErrMalformedEmbedding = errors.New("malformed embedding")

// Encode serializes v as a JSON array of numbers.
func Encode(v []float64) (string, error) {
	if len(v) == 0 {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEmbedding, err)
	}
	return string(data), nil
}

// Decode parses an embedding written by Encode. An empty column decodes to
// nil without error. When dim > 0 the decoded length must equal dim.
func Decode(s string, dim int) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var v []float64
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEmbedding, err)
	}
	if len(v) == 0 {
		return nil, nil
	}
	if dim > 0 && len(v) != dim {
		return nil, fmt.Errorf("%w: got %d dimensions, want %d", ErrMalformedEmbedding, len(v), dim)
	}
	return v, nil
}
