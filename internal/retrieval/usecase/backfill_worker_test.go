package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"crm-assistant-backend/internal/retrieval/domain"
	"crm-assistant-backend/internal/retrieval/repository"
	"crm-assistant-backend/pkg/vector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackfillWorkerEmbedsMissingRecords(t *testing.T) {
	emb := newKeywordEmbedder("tax", "meeting")
	n1 := &domain.Note{ID: "n1", OwnerID: "u1", NoteID: "1", Content: "tax meeting"}
	n2 := &domain.Note{ID: "n2", OwnerID: "u1", NoteID: "2", Content: "meeting"}
	done := &domain.Note{ID: "n3", OwnerID: "u1", NoteID: "3", Content: "tax", Embedding: "[1,0]"}
	notes := repository.NewMemoryStore(domain.EntityNote, 0, n1, n2, done)

	w := NewBackfillWorkerService(emb, []repository.RecordStore{notes}, 2, 10)
	w.Start()

	queued, err := w.QueueOwner(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, queued)

	w.Stop(context.Background())

	v1, err := vector.Decode(n1.Embedding, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, v1)

	v2, err := vector.Decode(n2.Embedding, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, v2)

	assert.Equal(t, "[1,0]", done.Embedding)
	assert.False(t, w.QueueJob(BackfillJob{Kind: domain.EntityNote, RecordID: "n1"}))
}

func TestBackfillWorkerLeavesRecordOnFailure(t *testing.T) {
	emb := newKeywordEmbedder("tax")
	emb.err = errors.New("quota exceeded")
	note := &domain.Note{ID: "n1", OwnerID: "u1", NoteID: "1", Content: "tax"}
	notes := repository.NewMemoryStore(domain.EntityNote, 0, note)

	w := NewBackfillWorkerService(emb, []repository.RecordStore{notes}, 1, 10)
	w.Start()
	_, err := w.QueueOwner(context.Background(), "u1")
	require.NoError(t, err)
	w.Stop(context.Background())

	assert.Empty(t, note.Embedding)
}

func TestBackfillQueueFull(t *testing.T) {
	w := NewBackfillWorkerService(newKeywordEmbedder("a"), nil, 1, 1)

	assert.True(t, w.QueueJob(BackfillJob{Kind: domain.EntityNote, RecordID: "a"}))
	assert.True(t, w.QueueJob(BackfillJob{Kind: domain.EntityNote, RecordID: "a"}), "already queued")
	assert.False(t, w.QueueJob(BackfillJob{Kind: domain.EntityNote, RecordID: "b"}))
}

func TestEmbeddingText(t *testing.T) {
	c := &domain.Contact{FirstName: "Jane", LastName: "Smith", Company: "Acme"}
	assert.Equal(t, "Jane Smith Acme", EmbeddingText(c))
}

// blockingEmbedder never answers until its context is cancelled, like a
// rate limiter with no tokens left.
type blockingEmbedder struct {
	started chan struct{}
	calls   atomic.Int32
}

func (b *blockingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	b.calls.Add(1)
	select {
	case b.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b *blockingEmbedder) Dimension() int { return 2 }

func (b *blockingEmbedder) Name() string { return "blocking" }

func TestBackfillStopGivesUpAfterDeadline(t *testing.T) {
	emb := &blockingEmbedder{started: make(chan struct{}, 1)}
	var records []domain.EmbeddedRecord
	for i := 0; i < 5; i++ {
		records = append(records, &domain.Note{ID: fmt.Sprintf("n%d", i), OwnerID: "u1", NoteID: fmt.Sprint(i), Content: "tax"})
	}
	notes := repository.NewMemoryStore(domain.EntityNote, 0, records...)

	w := NewBackfillWorkerService(emb, []repository.RecordStore{notes}, 1, 10)
	w.Start()
	queued, err := w.QueueOwner(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 5, queued)
	<-emb.started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	w.Stop(ctx)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, int32(1), emb.calls.Load(), "queued jobs are dropped, not embedded")

	count, err := notes.Count(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, count.Embedded)

	// dropped records are found again by the next run
	missing, err := notes.ListMissingEmbeddings(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Len(t, missing, 5)
}

func TestSearchWhileBackfillRuns(t *testing.T) {
	emb := newKeywordEmbedder("tax", "invoice")
	records := make([]domain.EmbeddedRecord, 0, 50)
	for i := 0; i < 50; i++ {
		records = append(records, &domain.Email{
			ID: fmt.Sprintf("e%d", i), OwnerID: "u1", MessageID: fmt.Sprint(i),
			Subject: fmt.Sprintf("tax invoice %d", i), Date: baseTime.Add(time.Duration(i) * time.Minute),
		})
	}
	store := repository.NewMemoryStore(domain.EntityEmail, 0, records...)
	stores := []repository.RecordStore{store}

	u := NewRetrievalUsecase(emb, stores, Options{Dimension: emb.Dimension()})
	w := NewBackfillWorkerService(emb, stores, 2, 100)
	w.Start()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			results, err := u.Search(context.Background(), "u1", domain.EntityEmail, "tax", 5)
			assert.NoError(t, err)
			assert.Len(t, results, 5)
		}
	}()

	_, err := w.QueueOwner(context.Background(), "u1")
	require.NoError(t, err)
	w.Stop(context.Background())
	<-done

	count, err := store.Count(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), count.Embedded)
}
