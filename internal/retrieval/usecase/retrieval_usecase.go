package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"crm-assistant-backend/internal/retrieval/domain"
	"crm-assistant-backend/internal/retrieval/repository"
	"crm-assistant-backend/pkg/ai"
	"crm-assistant-backend/pkg/vector"
)

const (
	DefaultPreviewLength = 300
	// LexicalScore is given to records that contain the query verbatim but
	// cannot be compared by embedding.
	LexicalScore = 0.5
)

// Thresholds holds the minimum score a record must exceed, per type
type Thresholds struct {
	Default float64
	ByType  map[domain.EntityType]float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Default: 0.1,
		ByType: map[domain.EntityType]float64{
			domain.EntityEmail:   0.3,
			domain.EntityContact: 0.1,
			domain.EntityNote:    0.3,
		},
	}
}

func (t Thresholds) For(kind domain.EntityType) float64 {
	if v, ok := t.ByType[kind]; ok {
		return v
	}
	return t.Default
}

type Options struct {
	// Dimension is the expected embedding length; 0 skips the check.
	Dimension     int
	PreviewLength int
	Thresholds    Thresholds
	// AllowEmptyQuery makes a blank query match every record lexically
	// instead of returning nothing.
	AllowEmptyQuery bool
}

type retrievalUsecase struct {
	embedder ai.EmbeddingProvider
	stores   map[domain.EntityType]repository.RecordStore
	opts     Options
}

// NewRetrievalUsecase creates the retrieval service. embedder may be nil,
// in which case every record is scored lexically.
func NewRetrievalUsecase(embedder ai.EmbeddingProvider, stores []repository.RecordStore, opts Options) RetrievalUsecase {
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = DefaultPreviewLength
	}
	if opts.Thresholds.ByType == nil && opts.Thresholds.Default == 0 {
		opts.Thresholds = DefaultThresholds()
	}

	byKind := make(map[domain.EntityType]repository.RecordStore, len(stores))
	for _, s := range stores {
		byKind[s.Kind()] = s
	}
	return &retrievalUsecase{embedder: embedder, stores: byKind, opts: opts}
}

func (u *retrievalUsecase) Types() []domain.EntityType {
	types := make([]domain.EntityType, 0, len(u.stores))
	for _, t := range domain.EntityTypes {
		if _, ok := u.stores[t]; ok {
			types = append(types, t)
		}
	}
	return types
}

func (u *retrievalUsecase) Search(ctx context.Context, ownerID string, kind domain.EntityType, query string, limit int) ([]domain.QueryResult, error) {
	store, ok := u.stores[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEntityType, kind)
	}
	if limit <= 0 || u.skipQuery(query) {
		return []domain.QueryResult{}, nil
	}

	qvec := u.embedQuery(ctx, query)
	return u.rank(ctx, store, ownerID, query, qvec, limit)
}

func (u *retrievalUsecase) Status(ctx context.Context, ownerID string) (map[domain.EntityType]repository.RecordCount, error) {
	status := make(map[domain.EntityType]repository.RecordCount, len(u.stores))
	for _, kind := range u.Types() {
		count, err := u.stores[kind].Count(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, kind, err)
		}
		status[kind] = count
	}
	return status, nil
}

func (u *retrievalUsecase) skipQuery(query string) bool {
	return strings.TrimSpace(query) == "" && !u.opts.AllowEmptyQuery
}

// embedQuery returns nil when no embedding can be had, which switches
// scoring to the lexical fallback.
func (u *retrievalUsecase) embedQuery(ctx context.Context, query string) []float64 {
	if u.embedder == nil || strings.TrimSpace(query) == "" {
		return nil
	}
	vec, err := u.embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("[Retrieval] query embedding unavailable, using lexical scoring: %v", err)
		return nil
	}
	return vec
}

type candidate struct {
	rec   domain.EmbeddedRecord
	score float64
}

func (u *retrievalUsecase) rank(ctx context.Context, store repository.RecordStore, ownerID, query string, qvec []float64, limit int) ([]domain.QueryResult, error) {
	kind := store.Kind()
	records, err := store.ListAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, kind, err)
	}

	threshold := u.opts.Thresholds.For(kind)
	needle := strings.ToLower(strings.TrimSpace(query))

	candidates := make([]candidate, 0, len(records))
	for _, rec := range records {
		score := u.score(rec, qvec, needle)
		if score > threshold {
			candidates = append(candidates, candidate{rec: rec, score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return before(candidates[i].score, candidates[j].score,
			candidates[i].rec.Timestamp(), candidates[j].rec.Timestamp(),
			candidates[i].rec.RecordID(), candidates[j].rec.RecordID())
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]domain.QueryResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, c.rec.ToResult(c.score, DisplayContent(c.rec, u.opts.PreviewLength)))
	}
	return results, nil
}

func (u *retrievalUsecase) score(rec domain.EmbeddedRecord, qvec []float64, needle string) float64 {
	if qvec != nil {
		stored, err := vector.Decode(rec.EncodedEmbedding(), u.opts.Dimension)
		switch {
		case err != nil:
			log.Printf("[Retrieval] %s %s: %v, scoring lexically", rec.Kind(), rec.RecordID(), err)
		case stored != nil:
			return vector.Cosine(qvec, stored)
		}
	}
	return lexicalScore(rec, needle)
}

func lexicalScore(rec domain.EmbeddedRecord, needle string) float64 {
	fields := rec.TextFields()
	values := make([]string, 0, len(fields))
	for _, f := range fields {
		values = append(values, f.Value)
	}
	if strings.Contains(strings.ToLower(strings.Join(values, " ")), needle) {
		return LexicalScore
	}
	return 0
}

// before orders by score desc, then newest first, then id.
func before(scoreA, scoreB float64, tsA, tsB time.Time, idA, idB string) bool {
	if scoreA != scoreB {
		return scoreA > scoreB
	}
	if !tsA.Equal(tsB) {
		return tsA.After(tsB)
	}
	return idA < idB
}

// DisplayContent joins the non-empty text fields with " | " and truncates
// to maxRunes followed by "...".
func DisplayContent(rec domain.EmbeddedRecord, maxRunes int) string {
	parts := make([]string, 0, 4)
	for _, f := range rec.TextFields() {
		if v := strings.Join(strings.Fields(f.Value), " "); v != "" {
			parts = append(parts, v)
		}
	}
	return truncate(strings.Join(parts, " | "), maxRunes)
}

func truncate(s string, maxRunes int) string {
	r := []rune(s)
	if maxRunes <= 0 || len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "..."
}
