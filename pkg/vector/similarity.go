package vector

import "math"

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Vectors of different length, empty vectors and zero vectors score 0,
// as does any computation that produces a non-finite value.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	s := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	switch {
	case math.IsNaN(s) || math.IsInf(s, 0):
		return 0
	case s > 1:
		return 1
	case s < -1:
		return -1
	}
	return s
}
