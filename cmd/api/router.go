package api

import (
	"net/http"

	"crm-assistant-backend/internal/auth/delivery"
	authUsecase "crm-assistant-backend/internal/auth/usecase"
	retrievalDelivery "crm-assistant-backend/internal/retrieval/delivery"
	taskDelivery "crm-assistant-backend/internal/task/delivery"
	"crm-assistant-backend/pkg/ai"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUsecase authUsecase.AuthUsecase, adminIDs []string, embedder ai.EmbeddingProvider, retrievalHandler *retrievalDelivery.RetrievalHandler, taskHandler *taskDelivery.TaskHandler) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		protected := api.Group("")
		protected.Use(delivery.AuthMiddleware(authUsecase))

		// Search routes (protected)
		search := protected.Group("/search")
		{
			search.POST("/context", retrievalHandler.GetContext)
			search.POST("/mail", retrievalHandler.SearchMail)
			search.POST("/:type", retrievalHandler.Search)
		}

		protected.GET("/rag/status", retrievalHandler.Status)
		protected.POST("/import/:type", retrievalHandler.Import)
		protected.DELETE("/records", retrievalHandler.DeleteRecords)
		protected.PUT("/mail/account", retrievalHandler.ConnectMailAccount)

		// Task routes (protected)
		tasks := protected.Group("/tasks")
		{
			tasks.GET("", taskHandler.GetActiveTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", taskHandler.GetTaskByID)
			tasks.POST("/:id/continue", taskHandler.ContinueTask)
			tasks.POST("/:id/steps", taskHandler.ExecuteStep)
			tasks.POST("/:id/complete", taskHandler.CompleteTask)
			tasks.POST("/:id/cancel", taskHandler.CancelTask)
		}

		// Settings routes (protected) - Runtime configuration
		settings := protected.Group("/settings")
		{
			settings.GET("/embedding", EmbeddingSettings(embedder))

			// The Ollama server receives every owner's records
			admin := settings.Group("", delivery.RequireAdmin(adminIDs))
			admin.PUT("/ollama", UpdateOllamaSettings)
			admin.POST("/ollama/test", TestOllamaConnection)
		}
	}
}
