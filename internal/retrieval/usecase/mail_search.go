package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"

	"crm-assistant-backend/internal/retrieval/domain"
	"crm-assistant-backend/internal/retrieval/repository"
	"crm-assistant-backend/pkg/crypto"
	"crm-assistant-backend/pkg/querynorm"
)

const (
	// Relevance assigned to provider hits; the provider has already filtered
	// them, so there is no score of our own.
	AddressFilteredRelevance = 0.8
	ProviderRelevance        = 0.5
)

// MailProvider searches a live mailbox with the normalized query grammar
type MailProvider interface {
	Search(ctx context.Context, account *domain.MailAccount, query string, limit int) ([]*domain.Email, error)
}

type mailSearchUsecase struct {
	accounts      repository.MailAccountRepository
	contacts      repository.RecordStore
	providers     map[string]MailProvider
	previewLength int
	encryptionKey string
}

// NewMailSearchUsecase creates the live mailbox search. contacts may be nil;
// when set, person names in questions are resolved to their addresses.
// An empty encryptionKey stores IMAP passwords as given.
func NewMailSearchUsecase(
	accounts repository.MailAccountRepository,
	contacts repository.RecordStore,
	providers map[string]MailProvider,
	encryptionKey string,
) MailSearchUsecase {
	if encryptionKey == "" {
		log.Println("[Retrieval] ENCRYPTION_KEY not set, IMAP passwords are stored unencrypted")
	}
	return &mailSearchUsecase{
		accounts:      accounts,
		contacts:      contacts,
		providers:     providers,
		previewLength: DefaultPreviewLength,
		encryptionKey: encryptionKey,
	}
}

func (u *mailSearchUsecase) ConnectAccount(ctx context.Context, account *domain.MailAccount) error {
	if existing, err := u.accounts.FindByOwner(account.OwnerID); err == nil && existing != nil {
		account.ID = existing.ID
	}
	if u.encryptionKey != "" && account.ImapPassword != "" {
		sealed, err := crypto.Encrypt(account.ImapPassword, u.encryptionKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt imap password: %w", err)
		}
		account.ImapPassword = sealed
	}
	return u.accounts.Save(account)
}

// credentials returns a copy of account with its secrets usable by providers.
func (u *mailSearchUsecase) credentials(account *domain.MailAccount) (*domain.MailAccount, error) {
	copied := *account
	if u.encryptionKey == "" || copied.Provider != domain.MailProviderIMAP {
		return &copied, nil
	}
	password, err := crypto.Decrypt(copied.ImapPassword, u.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt imap password: %w", err)
	}
	copied.ImapPassword = password
	return &copied, nil
}

func (u *mailSearchUsecase) SearchMail(ctx context.Context, ownerID, query string, limit int) (*MailSearchResult, error) {
	account, err := u.accounts.FindByOwner(ownerID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrMailAccountNotFound
	}
	provider, ok := u.providers[account.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported mail provider %q", account.Provider)
	}
	account, err = u.credentials(account)
	if err != nil {
		return nil, err
	}

	normalized := querynorm.New(u.resolver(ctx, ownerID)).Normalize(query)
	result := &MailSearchResult{
		Query:         query,
		ProviderQuery: normalized,
		Provider:      account.Provider,
		Results:       []domain.QueryResult{},
	}
	if limit <= 0 {
		return result, nil
	}

	emails, err := provider.Search(ctx, account, normalized, limit)
	if err != nil {
		log.Printf("[Retrieval] %s search failed for owner %s: %v", account.Provider, ownerID, err)
		return result, nil
	}

	relevance := ProviderRelevance
	if querynorm.HasAddressFilter(normalized) {
		relevance = AddressFilteredRelevance
	}

	sort.SliceStable(emails, func(i, j int) bool {
		return before(0, 0, emails[i].Timestamp(), emails[j].Timestamp(), emails[i].ID, emails[j].ID)
	})
	if len(emails) > limit {
		emails = emails[:limit]
	}
	for _, e := range emails {
		result.Results = append(result.Results, e.ToResult(relevance, DisplayContent(e, u.previewLength)))
	}
	return result, nil
}

// resolver builds a name directory from the owner's imported contacts.
func (u *mailSearchUsecase) resolver(ctx context.Context, ownerID string) querynorm.NameResolver {
	if u.contacts == nil {
		return nil
	}
	records, err := u.contacts.ListAll(ctx, ownerID)
	if err != nil {
		log.Printf("[Retrieval] contacts unavailable for name resolution: %v", err)
		return nil
	}

	entries := make(map[string]string, len(records))
	for _, rec := range records {
		c, ok := rec.(*domain.Contact)
		if !ok || c.Email == "" {
			continue
		}
		if name := c.FullName(); name != "" {
			entries[name] = c.Email
		}
	}
	return querynorm.NewDirectoryResolver(entries)
}
