package repository

import (
	"context"
	"errors"
	"log"
	"time"

	"crm-assistant-backend/internal/retrieval/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type recordPtr[T any] interface {
	*T
	domain.EmbeddedRecord
}

type gormStore[T any, PT recordPtr[T]] struct {
	db       *gorm.DB
	kind     domain.EntityType
	order    string
	pageSize int
}

func NewEmailStore(db *gorm.DB, pageSize int) RecordStore {
	return newGormStore[domain.Email](db, domain.EntityEmail, "date DESC, created_at DESC", pageSize)
}

func NewContactStore(db *gorm.DB, pageSize int) RecordStore {
	return newGormStore[domain.Contact](db, domain.EntityContact, "created_at DESC", pageSize)
}

func NewNoteStore(db *gorm.DB, pageSize int) RecordStore {
	return newGormStore[domain.Note](db, domain.EntityNote, "created_at DESC", pageSize)
}

func newGormStore[T any, PT recordPtr[T]](db *gorm.DB, kind domain.EntityType, order string, pageSize int) *gormStore[T, PT] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &gormStore[T, PT]{db: db, kind: kind, order: order, pageSize: pageSize}
}

func (s *gormStore[T, PT]) Kind() domain.EntityType {
	return s.kind
}

func (s *gormStore[T, PT]) ListAll(ctx context.Context, ownerID string) ([]domain.EmbeddedRecord, error) {
	var rows []T
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order(s.order).
		Limit(s.pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toRecords[T, PT](rows), nil
}

func (s *gormStore[T, PT]) ListMissingEmbeddings(ctx context.Context, ownerID string, limit int) ([]domain.EmbeddedRecord, error) {
	if limit <= 0 {
		limit = s.pageSize
	}
	var rows []T
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND (embedding IS NULL OR embedding = '')", ownerID).
		Order(s.order).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toRecords[T, PT](rows), nil
}

func (s *gormStore[T, PT]) AttachEmbedding(ctx context.Context, id, encoded string) error {
	return s.db.WithContext(ctx).
		Model(new(T)).
		Where("id = ? AND (embedding IS NULL OR embedding = '')", id).
		Update("embedding", encoded).Error
}

func (s *gormStore[T, PT]) Count(ctx context.Context, ownerID string) (RecordCount, error) {
	var count RecordCount
	db := s.db.WithContext(ctx)
	if err := db.Model(new(T)).Where("owner_id = ?", ownerID).Count(&count.Total).Error; err != nil {
		return count, err
	}
	err := db.Model(new(T)).
		Where("owner_id = ? AND embedding IS NOT NULL AND embedding <> ''", ownerID).
		Count(&count.Embedded).Error
	if count.Total > int64(s.pageSize) {
		log.Printf("[Retrieval] owner %s has %d %s records, only the newest %d are searched",
			ownerID, count.Total, s.kind, s.pageSize)
	}
	return count, err
}

func (s *gormStore[T, PT]) DeleteByOwner(ctx context.Context, ownerID string) error {
	return s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(new(T)).Error
}

func toRecords[T any, PT recordPtr[T]](rows []T) []domain.EmbeddedRecord {
	records := make([]domain.EmbeddedRecord, len(rows))
	for i := range rows {
		records[i] = PT(&rows[i])
	}
	return records
}

type gormImporter struct {
	db *gorm.DB
}

func NewGormImporter(db *gorm.DB) RecordImporter {
	return &gormImporter{db: db}
}

func (r *gormImporter) ImportEmails(ctx context.Context, emails []*domain.Email) (ImportResult, error) {
	return importRows(ctx, r.db, emails)
}

func (r *gormImporter) ImportContacts(ctx context.Context, contacts []*domain.Contact) (ImportResult, error) {
	return importRows(ctx, r.db, contacts)
}

func (r *gormImporter) ImportNotes(ctx context.Context, notes []*domain.Note) (ImportResult, error) {
	return importRows(ctx, r.db, notes)
}

// importRows inserts row by row so one bad record does not sink the batch.
// Conflicts on (owner_id, external key) count as skipped.
func importRows[PT domain.EmbeddedRecord](ctx context.Context, db *gorm.DB, rows []PT) (ImportResult, error) {
	var result ImportResult
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if row.ExternalKey() == "" || row.Owner() == "" {
			result.Failed++
			continue
		}
		prepareRow(row)

		tx := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
		switch {
		case tx.Error != nil:
			log.Printf("[Import] failed to insert %s %s: %v", row.Kind(), row.ExternalKey(), tx.Error)
			result.Failed++
		case tx.RowsAffected == 0:
			result.Skipped++
		default:
			result.Imported++
		}
	}
	if result.Imported == 0 && result.Failed > 0 && result.Skipped == 0 {
		return result, errors.New("no records could be imported")
	}
	return result, nil
}

// prepareRow assigns the id and creation time the database would otherwise
// leave empty.
func prepareRow(rec domain.EmbeddedRecord) {
	now := time.Now()
	switch r := rec.(type) {
	case *domain.Email:
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
	case *domain.Contact:
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
	case *domain.Note:
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
	}
}

type mailAccountRepository struct {
	db *gorm.DB
}

func NewMailAccountRepository(db *gorm.DB) MailAccountRepository {
	return &mailAccountRepository{db: db}
}

func (r *mailAccountRepository) FindByOwner(ownerID string) (*domain.MailAccount, error) {
	var account domain.MailAccount
	if err := r.db.Where("owner_id = ?", ownerID).First(&account).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *mailAccountRepository) Save(account *domain.MailAccount) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		UpdateAll: true,
	}).Create(account).Error
}

func (r *mailAccountRepository) UpdateTokens(ownerID, accessToken, refreshToken string) error {
	updates := map[string]interface{}{"access_token": accessToken}
	if refreshToken != "" {
		updates["refresh_token"] = refreshToken
	}
	return r.db.Model(&domain.MailAccount{}).Where("owner_id = ?", ownerID).Updates(updates).Error
}
