package usecase

import (
	"context"
	"errors"
	"log"

	"crm-assistant-backend/internal/retrieval/domain"
	"crm-assistant-backend/internal/retrieval/repository"
)

// Backfiller queues embedding work for an owner's new records
type Backfiller interface {
	QueueOwner(ctx context.Context, ownerID string) (int, error)
}

type importUsecase struct {
	importer repository.RecordImporter
	stores   []repository.RecordStore
	backfill Backfiller
}

// NewImportUsecase creates the import pipeline. backfill may be nil.
func NewImportUsecase(importer repository.RecordImporter, stores []repository.RecordStore, backfill Backfiller) ImportUsecase {
	return &importUsecase{importer: importer, stores: stores, backfill: backfill}
}

func (u *importUsecase) ImportEmails(ctx context.Context, ownerID string, emails []*domain.Email) (repository.ImportResult, error) {
	for _, e := range emails {
		e.OwnerID = ownerID
		e.Labels = domain.NewLabels(e.Labels...)
	}
	result, err := u.importer.ImportEmails(ctx, emails)
	u.afterImport(ctx, ownerID, domain.EntityEmail, result)
	return result, err
}

func (u *importUsecase) ImportContacts(ctx context.Context, ownerID string, contacts []*domain.Contact) (repository.ImportResult, error) {
	for _, c := range contacts {
		c.OwnerID = ownerID
	}
	result, err := u.importer.ImportContacts(ctx, contacts)
	u.afterImport(ctx, ownerID, domain.EntityContact, result)
	return result, err
}

func (u *importUsecase) ImportNotes(ctx context.Context, ownerID string, notes []*domain.Note) (repository.ImportResult, error) {
	for _, n := range notes {
		n.OwnerID = ownerID
	}
	result, err := u.importer.ImportNotes(ctx, notes)
	u.afterImport(ctx, ownerID, domain.EntityNote, result)
	return result, err
}

func (u *importUsecase) afterImport(ctx context.Context, ownerID string, kind domain.EntityType, result repository.ImportResult) {
	log.Printf("[Import] %s for %s: %d imported, %d skipped, %d failed",
		kind, ownerID, result.Imported, result.Skipped, result.Failed)

	if u.backfill == nil || result.Imported == 0 {
		return
	}
	queued, err := u.backfill.QueueOwner(ctx, ownerID)
	if err != nil {
		log.Printf("[Import] failed to queue embeddings for %s: %v", ownerID, err)
		return
	}
	log.Printf("[Import] queued %d records for embedding", queued)
}

func (u *importUsecase) DeleteAll(ctx context.Context, ownerID string) error {
	var errs []error
	for _, s := range u.stores {
		if err := s.DeleteByOwner(ctx, ownerID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
