package usecase

import "crm-assistant-backend/internal/task/domain"

// TaskUsecase defines the interface for task business logic
type TaskUsecase interface {
	CreateTask(userID, title, description string, taskType domain.TaskType, metadata map[string]any) (*domain.Task, error)

	// CreateMultiStepTask records the step names in metadata["steps"]
	CreateMultiStepTask(userID, title, description string, steps []string, taskType domain.TaskType, metadata map[string]any) (*domain.Task, error)

	GetActiveTasks(userID string) ([]*domain.Task, error)

	// GetTask retrieves a task by ID (with ownership check)
	GetTask(userID, taskID string) (*domain.Task, error)

	ContinueTask(userID, taskID, userMessage string) (*ContinueResult, error)

	// ExecuteStep stores stepData under the current step index and advances
	ExecuteStep(userID, taskID, action string, stepData any) (*domain.Task, error)

	CompleteTask(userID, taskID string, finalResult any) (*domain.Task, error)
	CancelTask(userID, taskID, reason string) (*domain.Task, error)
}

// ContinueResult is returned when the assistant resumes a task. Context is
// nil for completed tasks.
type ContinueResult struct {
	Task        *domain.Task        `json:"task"`
	Context     *domain.TaskContext `json:"context,omitempty"`
	UserMessage string              `json:"user_message,omitempty"`
	Response    string              `json:"response,omitempty"`
}
