package api

import (
	"context"
	"log"

	authUsecase "crm-assistant-backend/internal/auth/usecase"
	retrievalDelivery "crm-assistant-backend/internal/retrieval/delivery"
	"crm-assistant-backend/internal/retrieval/domain"
	retrievalRepo "crm-assistant-backend/internal/retrieval/repository"
	retrievalUsecase "crm-assistant-backend/internal/retrieval/usecase"
	taskDelivery "crm-assistant-backend/internal/task/delivery"
	taskRepo "crm-assistant-backend/internal/task/repository"
	taskUsecasePkg "crm-assistant-backend/internal/task/usecase"
	"crm-assistant-backend/pkg/ai"
	"crm-assistant-backend/pkg/config"
	"crm-assistant-backend/pkg/gmail"
	"crm-assistant-backend/pkg/imap"
	"crm-assistant-backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// Storage is the persistence the handlers are built on, either GORM or
// in-memory.
type Storage struct {
	Stores   []retrievalRepo.RecordStore
	Importer retrievalRepo.RecordImporter
	Accounts retrievalRepo.MailAccountRepository
	Tasks    taskRepo.TaskRepository
}

// store returns the record store of the given type, or nil.
func (s Storage) store(kind domain.EntityType) retrievalRepo.RecordStore {
	for _, st := range s.Stores {
		if st.Kind() == kind {
			return st
		}
	}
	return nil
}

type Handler struct {
	authUsecase      authUsecase.AuthUsecase
	config           *config.Config
	embedder         ai.EmbeddingProvider
	backfill         *retrievalUsecase.BackfillWorkerService
	retrievalHandler *retrievalDelivery.RetrievalHandler
	taskHandler      *taskDelivery.TaskHandler
}

func NewHandler(authUc authUsecase.AuthUsecase, cfg *config.Config, storage Storage) *Handler {
	// Initialize runtime config for settings API
	InitRuntimeConfig(cfg.OllamaBaseURL, cfg.OllamaModel)

	embedder := newEmbedder(cfg)

	dimension := cfg.EmbeddingDimension
	providerName := "none"
	if embedder != nil {
		dimension = embedder.Dimension()
		providerName = embedder.Name()
	}

	retrievalUc := retrievalUsecase.NewRetrievalUsecase(embedder, storage.Stores, retrievalUsecase.Options{
		Dimension:     dimension,
		PreviewLength: cfg.Retrieval.PreviewLength,
		Thresholds: retrievalUsecase.Thresholds{
			Default: cfg.Retrieval.DefaultThreshold,
			ByType: map[domain.EntityType]float64{
				domain.EntityEmail:   cfg.Retrieval.EmailThreshold,
				domain.EntityContact: cfg.Retrieval.ContactThreshold,
				domain.EntityNote:    cfg.Retrieval.NoteThreshold,
			},
		},
		AllowEmptyQuery: cfg.Retrieval.AllowEmptyQuery,
	})

	// Initialize BackfillWorkerService to embed imported records
	var backfill *retrievalUsecase.BackfillWorkerService
	var backfiller retrievalUsecase.Backfiller
	if embedder != nil {
		backfill = retrievalUsecase.NewBackfillWorkerService(embedder, storage.Stores, cfg.BackfillWorkers, cfg.BackfillQueueSize)
		backfill.Start()
		backfiller = backfill
	} else {
		log.Println("Warning: no embedding provider, records are scored lexically")
	}
	importUc := retrievalUsecase.NewImportUsecase(storage.Importer, storage.Stores, backfiller)

	// Live mailbox search through the owner's connected account
	mailProviders := map[string]retrievalUsecase.MailProvider{
		domain.MailProviderGmail: gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, storage.Accounts),
		domain.MailProviderIMAP:  imap.NewService(),
	}
	mailUc := retrievalUsecase.NewMailSearchUsecase(storage.Accounts, storage.store(domain.EntityContact), mailProviders, cfg.EncryptionKey)

	retrievalHandler := retrievalDelivery.NewRetrievalHandler(retrievalUc, importUc, mailUc, providerName, dimension)

	taskHandler := taskDelivery.NewTaskHandler(taskUsecasePkg.NewTaskUsecase(storage.Tasks))
	log.Println("Task handler initialized")

	return &Handler{
		authUsecase:      authUc,
		config:           cfg,
		embedder:         embedder,
		backfill:         backfill,
		retrievalHandler: retrievalHandler,
		taskHandler:      taskHandler,
	}
}

// newEmbedder builds the rate-limited embedding provider, or nil when no
// backend can be configured.
func newEmbedder(cfg *config.Config) ai.EmbeddingProvider {
	backend, err := ai.NewEmbeddingProvider(ai.Config{
		Provider:      ai.ProviderType(cfg.EmbeddingProvider),
		Dimension:     cfg.EmbeddingDimension,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIModel:   cfg.OpenAIEmbeddingModel,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		OllamaBaseURL: GetRuntimeOllamaBaseURL,
		OllamaModel:   GetRuntimeOllamaModel,
		Fallback:      ai.ProviderType(cfg.EmbeddingFallback),
	})
	if err != nil {
		log.Printf("Warning: Failed to initialize embedding provider: %v", err)
		return nil
	}

	limiter := ratelimit.NewTokenBucket(cfg.EmbeddingRateLimit, cfg.EmbeddingRateWindow)
	embedder := ai.NewRateLimitedProvider(backend, limiter)
	log.Printf("Embedding provider initialized: %s (%d dimensions, %d requests per %s)",
		embedder.Name(), embedder.Dimension(), cfg.EmbeddingRateLimit, cfg.EmbeddingRateWindow)
	return embedder
}

// Router builds the engine with CORS and every route registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Setup routes
	SetupRoutes(r, h.authUsecase, h.config.AdminUserIDs, h.embedder, h.retrievalHandler, h.taskHandler)
	return r
}

// Shutdown stops the background workers, giving up on queued embeddings
// once ctx is done.
func (h *Handler) Shutdown(ctx context.Context) {
	if h.backfill != nil {
		h.backfill.Stop(ctx)
	}
}
