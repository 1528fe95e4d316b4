package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"crm-assistant-backend/internal/retrieval/domain"
	"crm-assistant-backend/internal/retrieval/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crmStores(emails, contacts, notes []domain.EmbeddedRecord) []repository.RecordStore {
	return []repository.RecordStore{
		repository.NewMemoryStore(domain.EntityEmail, 0, emails...),
		repository.NewMemoryStore(domain.EntityContact, 0, contacts...),
		repository.NewMemoryStore(domain.EntityNote, 0, notes...),
	}
}

func TestGetContextSummaryForContactsOnly(t *testing.T) {
	contacts := []domain.EmbeddedRecord{
		&domain.Contact{ID: "c1", OwnerID: "u1", ContactID: "1", FirstName: "Jane", Company: "Acme"},
		&domain.Contact{ID: "c2", OwnerID: "u1", ContactID: "2", FirstName: "John", Company: "Acme Labs"},
	}
	notes := []domain.EmbeddedRecord{
		&domain.Note{ID: "n1", OwnerID: "u1", NoteID: "1", Content: "call about pricing"},
	}
	u := NewRetrievalUsecase(nil, crmStores(nil, contacts, notes), Options{})

	rc := u.GetContext(context.Background(), "u1", "acme", 10)
	assert.Equal(t, "2 relevant contacts.", rc.Summary)
	assert.Len(t, rc.Results, 2)
	assert.Len(t, rc.ResultsByType[domain.EntityContact], 2)
	assert.Empty(t, rc.ResultsByType[domain.EntityNote])
}

func TestGetContextSplitsLimitAcrossTypes(t *testing.T) {
	var emails, notes []domain.EmbeddedRecord
	for i := 0; i < 5; i++ {
		emails = append(emails, &domain.Email{
			ID: fmt.Sprintf("e%d", i), OwnerID: "u1", MessageID: fmt.Sprintf("m%d", i),
			Subject: "renewal terms", Date: baseTime.Add(time.Duration(i) * time.Minute),
		})
		notes = append(notes, &domain.Note{
			ID: fmt.Sprintf("n%d", i), OwnerID: "u1", NoteID: fmt.Sprintf("x%d", i),
			Content: "renewal follow-up", CreatedAt: baseTime,
		})
	}
	u := NewRetrievalUsecase(nil, crmStores(emails, nil, notes), Options{})

	rc := u.GetContext(context.Background(), "u1", "renewal", 4)
	// ceil(4/3) = 2 per type, then the combined list is cut to 4
	assert.Len(t, rc.Results, 4)
	assert.Len(t, rc.ResultsByType[domain.EntityEmail], 2)
	assert.Len(t, rc.ResultsByType[domain.EntityNote], 2)
	assert.Equal(t, "2 relevant emails, 2 relevant notes.", rc.Summary)

	// equal scores: newest first, so emails lead
	assert.Equal(t, "e4", rc.Results[0].ID)
	assert.Equal(t, "e3", rc.Results[1].ID)
}

func TestGetContextEmbedsQueryOnce(t *testing.T) {
	emb := newKeywordEmbedder("budget", "hiring")
	emails := []domain.EmbeddedRecord{
		withEmbedding(t, emb, &domain.Email{ID: "e1", OwnerID: "u1", MessageID: "1", Subject: "Budget approved"}),
	}
	notes := []domain.EmbeddedRecord{
		withEmbedding(t, emb, &domain.Note{ID: "n1", OwnerID: "u1", NoteID: "1", Content: "budget for hiring"}),
	}
	u := NewRetrievalUsecase(emb, crmStores(emails, nil, notes), Options{Dimension: 2})

	rc := u.GetContext(context.Background(), "u1", "budget", 6)
	assert.Equal(t, int32(1), emb.calls.Load())
	require.Len(t, rc.Results, 2)
	assert.Equal(t, "e1", rc.Results[0].ID)
	assert.Equal(t, "1 relevant email, 1 relevant note.", rc.Summary)
}

func TestGetContextSurvivesStoreFailure(t *testing.T) {
	failing := repository.NewMemoryStore(domain.EntityEmail, 0)
	failing.Err = errors.New("timeout")
	notes := repository.NewMemoryStore(domain.EntityNote, 0,
		&domain.Note{ID: "n1", OwnerID: "u1", NoteID: "1", Content: "pricing sheet"},
	)
	u := NewRetrievalUsecase(nil, []repository.RecordStore{failing, notes}, Options{})

	rc := u.GetContext(context.Background(), "u1", "pricing", 5)
	require.Len(t, rc.Results, 1)
	assert.Equal(t, "1 relevant note.", rc.Summary)
}

func TestGetContextEmpty(t *testing.T) {
	u := NewRetrievalUsecase(nil, crmStores(nil, nil, nil), Options{})

	for _, tc := range []struct {
		query string
		limit int
	}{
		{"anything", 0},
		{"   ", 5},
		{"nothing matches", 5},
	} {
		rc := u.GetContext(context.Background(), "u1", tc.query, tc.limit)
		assert.Empty(t, rc.Results)
		assert.Equal(t, NoRelevantInformation, rc.Summary)
	}
}

func TestSummarize(t *testing.T) {
	results := []domain.QueryResult{
		{Type: domain.EntityNote},
		{Type: domain.EntityEmail},
		{Type: domain.EntityEmail},
	}
	assert.Equal(t, "2 relevant emails, 1 relevant note.", Summarize(results))
	assert.Equal(t, NoRelevantInformation, Summarize(nil))
}

func TestFormatForPrompt(t *testing.T) {
	rc := &domain.RetrievalContext{
		Summary: "1 relevant contact.",
		Results: []domain.QueryResult{
			{Type: domain.EntityContact, DisplayContent: "Jane | Smith", Relevance: 0.876},
		},
	}
	assert.Equal(t, "1 relevant contact.\n[contact] Jane | Smith (88% relevant)", FormatForPrompt(rc))
}
