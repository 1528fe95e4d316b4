package usecase

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"crm-assistant-backend/internal/retrieval/domain"
	"crm-assistant-backend/pkg/vector"

	"github.com/stretchr/testify/require"
)

// keywordEmbedder puts a 1 in dimension i when keyword i occurs in the text.
type keywordEmbedder struct {
	keywords []string
	err      error
	calls    atomic.Int32
}

func newKeywordEmbedder(keywords ...string) *keywordEmbedder {
	return &keywordEmbedder{keywords: keywords}
}

func (k *keywordEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	k.calls.Add(1)
	if k.err != nil {
		return nil, k.err
	}
	text = strings.ToLower(text)
	vec := make([]float64, len(k.keywords))
	for i, kw := range k.keywords {
		if strings.Contains(text, kw) {
			vec[i] = 1
		}
	}
	return vec, nil
}

func (k *keywordEmbedder) Dimension() int { return len(k.keywords) }

func (k *keywordEmbedder) Name() string { return "keyword" }

// withEmbedding stores the embedder's vector for rec, as the backfill would.
func withEmbedding[T domain.EmbeddedRecord](t *testing.T, emb *keywordEmbedder, rec T) T {
	t.Helper()
	vec, err := emb.Embed(context.Background(), EmbeddingText(rec))
	require.NoError(t, err)
	encoded, err := vector.Encode(vec)
	require.NoError(t, err)
	rec.SetEmbedding(encoded)
	emb.calls.Store(0)
	return rec
}
