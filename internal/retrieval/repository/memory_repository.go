package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"crm-assistant-backend/internal/retrieval/domain"

	"github.com/google/uuid"
)

// MemoryStore keeps one entity type's records in process.
// It backs local runs without a database and the usecase tests.
// Reads return copies; stored records are only touched under mu.
type MemoryStore struct {
	mu       sync.RWMutex
	kind     domain.EntityType
	pageSize int
	records  []domain.EmbeddedRecord
	// Err, when set, is returned by every read.
	Err error
}

func NewMemoryStore(kind domain.EntityType, pageSize int, records ...domain.EmbeddedRecord) *MemoryStore {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &MemoryStore{kind: kind, pageSize: pageSize, records: records}
}

func (s *MemoryStore) Kind() domain.EntityType {
	return s.kind
}

func (s *MemoryStore) ListAll(ctx context.Context, ownerID string) ([]domain.EmbeddedRecord, error) {
	return s.list(ownerID, s.pageSize, func(domain.EmbeddedRecord) bool { return true })
}

func (s *MemoryStore) ListMissingEmbeddings(ctx context.Context, ownerID string, limit int) ([]domain.EmbeddedRecord, error) {
	if limit <= 0 {
		limit = s.pageSize
	}
	return s.list(ownerID, limit, func(r domain.EmbeddedRecord) bool { return r.EncodedEmbedding() == "" })
}

func (s *MemoryStore) list(ownerID string, limit int, keep func(domain.EmbeddedRecord) bool) ([]domain.EmbeddedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}

	var out []domain.EmbeddedRecord
	for _, r := range s.records {
		if r.Owner() == ownerID && keep(r) {
			out = append(out, r.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp().After(out[j].Timestamp())
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) AttachEmbedding(ctx context.Context, id, encoded string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.RecordID() == id && r.EncodedEmbedding() == "" {
			r.SetEmbedding(encoded)
		}
	}
	return nil
}

func (s *MemoryStore) Count(ctx context.Context, ownerID string) (RecordCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count RecordCount
	if s.Err != nil {
		return count, s.Err
	}
	for _, r := range s.records {
		if r.Owner() != ownerID {
			continue
		}
		count.Total++
		if r.EncodedEmbedding() != "" {
			count.Embedded++
		}
	}
	return count, nil
}

func (s *MemoryStore) DeleteByOwner(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[:0]
	for _, r := range s.records {
		if r.Owner() != ownerID {
			kept = append(kept, r)
		}
	}
	s.records = kept
	return nil
}

// insert adds rec unless the owner already has its external key.
func (s *MemoryStore) insert(rec domain.EmbeddedRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.Owner() == rec.Owner() && r.ExternalKey() == rec.ExternalKey() {
			return false
		}
	}
	s.records = append(s.records, rec)
	return true
}

type memoryImporter struct {
	emails, contacts, notes *MemoryStore
}

// NewMemoryImporter imports into the given stores.
func NewMemoryImporter(emails, contacts, notes *MemoryStore) RecordImporter {
	return &memoryImporter{emails: emails, contacts: contacts, notes: notes}
}

func (m *memoryImporter) ImportEmails(ctx context.Context, emails []*domain.Email) (ImportResult, error) {
	return insertAll(m.emails, emails), nil
}

func (m *memoryImporter) ImportContacts(ctx context.Context, contacts []*domain.Contact) (ImportResult, error) {
	return insertAll(m.contacts, contacts), nil
}

func (m *memoryImporter) ImportNotes(ctx context.Context, notes []*domain.Note) (ImportResult, error) {
	return insertAll(m.notes, notes), nil
}

func insertAll[PT domain.EmbeddedRecord](store *MemoryStore, rows []PT) ImportResult {
	var result ImportResult
	for _, row := range rows {
		if row.ExternalKey() == "" || row.Owner() == "" {
			result.Failed++
			continue
		}
		prepareRow(row)
		if store.insert(row) {
			result.Imported++
		} else {
			result.Skipped++
		}
	}
	return result
}

// MemoryMailAccounts is an in-process MailAccountRepository.
type MemoryMailAccounts struct {
	mu       sync.RWMutex
	accounts map[string]*domain.MailAccount
}

func NewMemoryMailAccounts() *MemoryMailAccounts {
	return &MemoryMailAccounts{accounts: make(map[string]*domain.MailAccount)}
}

func (m *MemoryMailAccounts) FindByOwner(ownerID string) (*domain.MailAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[ownerID]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (m *MemoryMailAccounts) Save(account *domain.MailAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	account.UpdatedAt = time.Now()
	copied := *account
	m.accounts[account.OwnerID] = &copied
	return nil
}

func (m *MemoryMailAccounts) UpdateTokens(ownerID, accessToken, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[ownerID]
	if !ok {
		return nil
	}
	a.AccessToken = accessToken
	if refreshToken != "" {
		a.RefreshToken = refreshToken
	}
	return nil
}
