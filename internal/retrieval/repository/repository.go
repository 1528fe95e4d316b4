package repository

import (
	"context"

	"crm-assistant-backend/internal/retrieval/domain"
)

// DefaultPageSize bounds how many records one scan loads per owner and type.
const DefaultPageSize = 100

// RecordCount reports how many of an owner's records carry an embedding
type RecordCount struct {
	Total    int64 `json:"total"`
	Embedded int64 `json:"embedded"`
}

// RecordStore is the read side of one entity type's persistence
type RecordStore interface {
	Kind() domain.EntityType
	// ListAll returns the owner's records, newest first, at most one page.
	ListAll(ctx context.Context, ownerID string) ([]domain.EmbeddedRecord, error)
	ListMissingEmbeddings(ctx context.Context, ownerID string, limit int) ([]domain.EmbeddedRecord, error)
	// AttachEmbedding stores an embedding only if the record has none yet.
	AttachEmbedding(ctx context.Context, id, encoded string) error
	Count(ctx context.Context, ownerID string) (RecordCount, error)
	DeleteByOwner(ctx context.Context, ownerID string) error
}

// ImportResult counts the outcome of one import batch
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// RecordImporter inserts records, ignoring ones whose external key the
// owner already has.
type RecordImporter interface {
	ImportEmails(ctx context.Context, emails []*domain.Email) (ImportResult, error)
	ImportContacts(ctx context.Context, contacts []*domain.Contact) (ImportResult, error)
	ImportNotes(ctx context.Context, notes []*domain.Note) (ImportResult, error)
}

// MailAccountRepository stores the owner's live mailbox credentials
type MailAccountRepository interface {
	FindByOwner(ownerID string) (*domain.MailAccount, error)
	Save(account *domain.MailAccount) error
	UpdateTokens(ownerID, accessToken, refreshToken string) error
}
