package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := []float64{0.1, -0.25, 3.14159, 1e-12}

	encoded, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(encoded, len(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeEmpty(t *testing.T) {
	for _, s := range []string{"", "  ", "[]"} {
		v, err := Decode(s, 3)
		assert.NoError(t, err)
		assert.Nil(t, v)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
		dim  int
	}{
		{"not json", "meeting notes about taxes", 3},
		{"strings", `["a","b","c"]`, 3},
		{"wrong dimension", `[0.1,0.2]`, 3},
		{"object", `{"x":1}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.in, tt.dim)
			assert.ErrorIs(t, err, ErrMalformedEmbedding)
		})
	}
}

func TestDecodeWithoutDimensionCheck(t *testing.T) {
	v, err := Decode(`[1,2]`, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, v)
}
