package usecase

import (
	"context"

	"crm-assistant-backend/internal/retrieval/domain"
	"crm-assistant-backend/internal/retrieval/repository"
)

// RetrievalUsecase ranks an owner's stored records against a query
type RetrievalUsecase interface {
	Search(ctx context.Context, ownerID string, kind domain.EntityType, query string, limit int) ([]domain.QueryResult, error)
	// GetContext searches every type and never fails; problems become
	// missing results.
	GetContext(ctx context.Context, ownerID, query string, limit int) *domain.RetrievalContext
	Status(ctx context.Context, ownerID string) (map[domain.EntityType]repository.RecordCount, error)
	Types() []domain.EntityType
}

// ImportUsecase loads records from the CRM and mail sync jobs
type ImportUsecase interface {
	ImportEmails(ctx context.Context, ownerID string, emails []*domain.Email) (repository.ImportResult, error)
	ImportContacts(ctx context.Context, ownerID string, contacts []*domain.Contact) (repository.ImportResult, error)
	ImportNotes(ctx context.Context, ownerID string, notes []*domain.Note) (repository.ImportResult, error)
	DeleteAll(ctx context.Context, ownerID string) error
}

// MailSearchUsecase searches the owner's live mailbox
type MailSearchUsecase interface {
	SearchMail(ctx context.Context, ownerID, query string, limit int) (*MailSearchResult, error)
	// ConnectAccount stores the owner's mail credentials, replacing any
	// previous account. Secrets are encrypted at rest when a key is set.
	ConnectAccount(ctx context.Context, account *domain.MailAccount) error
}

type MailSearchResult struct {
	Query         string               `json:"query"`
	ProviderQuery string               `json:"provider_query"`
	Provider      string               `json:"provider"`
	Results       []domain.QueryResult `json:"results"`
}
