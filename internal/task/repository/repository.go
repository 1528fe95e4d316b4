package repository

import "crm-assistant-backend/internal/task/domain"

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	Create(task *domain.Task) error

	// FindByID returns nil, nil when the task does not exist
	FindByID(id string) (*domain.Task, error)

	// FindActiveByUserID returns pending and in-progress tasks, newest first
	FindActiveByUserID(userID string) ([]*domain.Task, error)

	Update(task *domain.Task) error
}
