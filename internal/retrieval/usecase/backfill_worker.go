package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"crm-assistant-backend/internal/retrieval/domain"
	"crm-assistant-backend/internal/retrieval/repository"
	"crm-assistant-backend/pkg/ai"
	"crm-assistant-backend/pkg/vector"
)

// BackfillJob represents a record that still needs an embedding
type BackfillJob struct {
	OwnerID  string
	Kind     domain.EntityType
	RecordID string
	Text     string
}

func (j BackfillJob) key() string {
	return string(j.Kind) + "/" + j.RecordID
}

// BackfillWorkerService embeds imported records in the background
type BackfillWorkerService struct {
	embedder    ai.EmbeddingProvider
	stores      map[domain.EntityType]repository.RecordStore
	jobQueue    chan BackfillJob
	workerWg    sync.WaitGroup
	workerCount int
	started     bool
	stopped     bool
	inflight    map[string]bool // queued or running, by kind/id
	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewBackfillWorkerService creates a new backfill worker service
func NewBackfillWorkerService(
	embedder ai.EmbeddingProvider,
	stores []repository.RecordStore,
	workerCount int,
	queueSize int,
) *BackfillWorkerService {
	if workerCount <= 0 {
		workerCount = 2
	}
	if queueSize <= 0 {
		queueSize = 500
	}

	byKind := make(map[domain.EntityType]repository.RecordStore, len(stores))
	for _, s := range stores {
		byKind[s.Kind()] = s
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &BackfillWorkerService{
		embedder:    embedder,
		stores:      byKind,
		jobQueue:    make(chan BackfillJob, queueSize),
		workerCount: workerCount,
		inflight:    make(map[string]bool),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the backfill workers
func (s *BackfillWorkerService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return
	}

	for i := 0; i < s.workerCount; i++ {
		s.workerWg.Add(1)
		go s.worker(i)
	}
	s.started = true
	log.Printf("[Backfill] Started %d workers", s.workerCount)
}

// Stop closes the queue and lets the workers drain it until ctx is done.
// After that the running embeddings are cancelled and queued jobs are
// dropped; their records stay unembedded until the next QueueOwner.
func (s *BackfillWorkerService) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.jobQueue)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.workerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Printf("[Backfill] Dropping %d queued jobs: %v", len(s.jobQueue), ctx.Err())
		s.cancel()
		<-done
	}
	s.cancel()
	log.Println("[Backfill] All workers stopped")
}

func (s *BackfillWorkerService) worker(id int) {
	defer s.workerWg.Done()

	for job := range s.jobQueue {
		if s.ctx.Err() == nil {
			s.processJob(s.ctx, job)
		}
		s.mu.Lock()
		delete(s.inflight, job.key())
		s.mu.Unlock()
	}

	log.Printf("[Backfill] Worker %d stopped", id)
}

func (s *BackfillWorkerService) processJob(ctx context.Context, job BackfillJob) {
	store, ok := s.stores[job.Kind]
	if !ok || s.embedder == nil {
		return
	}

	vec, err := s.embedder.Embed(ctx, job.Text)
	if err != nil {
		log.Printf("[Backfill] %s %s left without embedding: %v", job.Kind, job.RecordID, err)
		return
	}

	encoded, err := vector.Encode(vec)
	if err != nil {
		log.Printf("[Backfill] %s %s: %v", job.Kind, job.RecordID, err)
		return
	}

	if err := store.AttachEmbedding(ctx, job.RecordID, encoded); err != nil {
		log.Printf("[Backfill] Save error for %s %s: %v", job.Kind, job.RecordID, err)
	}
}

// QueueJob adds a single job to the queue (non-blocking)
func (s *BackfillWorkerService) QueueJob(job BackfillJob) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	if s.inflight[job.key()] {
		return true
	}

	select {
	case s.jobQueue <- job:
		s.inflight[job.key()] = true
		return true
	default:
		return false // Queue full
	}
}

// QueueOwner queues every record of the owner that has no embedding yet.
// Records that do not fit in the queue are picked up by the next call.
func (s *BackfillWorkerService) QueueOwner(ctx context.Context, ownerID string) (int, error) {
	queued := 0
	for _, kind := range domain.EntityTypes {
		store, ok := s.stores[kind]
		if !ok {
			continue
		}

		records, err := store.ListMissingEmbeddings(ctx, ownerID, cap(s.jobQueue))
		if err != nil {
			return queued, fmt.Errorf("failed to list %s records: %w", kind, err)
		}

		for _, rec := range records {
			job := BackfillJob{
				OwnerID:  ownerID,
				Kind:     kind,
				RecordID: rec.RecordID(),
				Text:     EmbeddingText(rec),
			}
			if !s.QueueJob(job) {
				log.Printf("[Backfill] Queue full, %d records queued for %s", queued, ownerID)
				return queued, nil
			}
			queued++
		}
	}
	return queued, nil
}

// EmbeddingText is the text embedded for a record: its fields joined by spaces.
func EmbeddingText(rec domain.EmbeddedRecord) string {
	fields := rec.TextFields()
	values := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Value != "" {
			values = append(values, f.Value)
		}
	}
	return strings.Join(values, " ")
}
