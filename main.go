package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	api "crm-assistant-backend/cmd/api"
	authUsecase "crm-assistant-backend/internal/auth/usecase"
	retrievaldomain "crm-assistant-backend/internal/retrieval/domain"
	retrievalRepo "crm-assistant-backend/internal/retrieval/repository"
	taskdomain "crm-assistant-backend/internal/task/domain"
	taskRepo "crm-assistant-backend/internal/task/repository"
	"crm-assistant-backend/pkg/config"
	"crm-assistant-backend/pkg/database"
)

func main() {
	// Load configuration
	cfg := config.Load()

	storage := newStorage(cfg)

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authUsecase.NewAuthUsecase(cfg)

	// Initialize HTTP handler
	handler := api.NewHandler(authUsecaseInstance, cfg, storage)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler.Router(),
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	handler.Shutdown(shutdownCtx)
}

// newStorage connects to Postgres when DATABASE_URL is set and falls back
// to in-memory stores otherwise.
func newStorage(cfg *config.Config) api.Storage {
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, records are kept in memory")
		emails := retrievalRepo.NewMemoryStore(retrievaldomain.EntityEmail, cfg.Retrieval.PageSize)
		contacts := retrievalRepo.NewMemoryStore(retrievaldomain.EntityContact, cfg.Retrieval.PageSize)
		notes := retrievalRepo.NewMemoryStore(retrievaldomain.EntityNote, cfg.Retrieval.PageSize)
		return api.Storage{
			Stores:   []retrievalRepo.RecordStore{emails, contacts, notes},
			Importer: retrievalRepo.NewMemoryImporter(emails, contacts, notes),
			Accounts: retrievalRepo.NewMemoryMailAccounts(),
			Tasks:    taskRepo.NewMemoryTaskRepository(),
		}
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&retrievaldomain.Email{},
		&retrievaldomain.Contact{},
		&retrievaldomain.Note{},
		&retrievaldomain.MailAccount{},
		&taskdomain.Task{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	return api.Storage{
		Stores: []retrievalRepo.RecordStore{
			retrievalRepo.NewEmailStore(db, cfg.Retrieval.PageSize),
			retrievalRepo.NewContactStore(db, cfg.Retrieval.PageSize),
			retrievalRepo.NewNoteStore(db, cfg.Retrieval.PageSize),
		},
		Importer: retrievalRepo.NewGormImporter(db),
		Accounts: retrievalRepo.NewMailAccountRepository(db),
		Tasks:    taskRepo.NewGormTaskRepository(db),
	}
}
