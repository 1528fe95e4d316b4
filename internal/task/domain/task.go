package domain

import (
	"errors"
	"time"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// TaskType is the integration a task works against
type TaskType string

const (
	TaskTypeEmail    TaskType = "EMAIL"
	TaskTypeCalendar TaskType = "CALENDAR"
	TaskTypeHubspot  TaskType = "HUBSPOT"
	TaskTypeGeneral  TaskType = "GENERAL"
)

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusFailed     TaskStatus = "FAILED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// Task is a multi-step piece of work the assistant carries across turns
type Task struct {
	ID          string         `json:"id" gorm:"primaryKey"`
	UserID      string         `json:"user_id" gorm:"index;not null"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description,omitempty"`
	Type        TaskType       `json:"type" gorm:"default:GENERAL"`
	Status      TaskStatus     `json:"status" gorm:"index;default:PENDING"`
	CurrentStep int            `json:"current_step"`
	TotalSteps  int            `json:"total_steps"`
	StepData    map[string]any `json:"step_data" gorm:"serializer:json;type:text"` // keyed by step index, plus "final" and "cancellationReason"
	Metadata    map[string]any `json:"metadata,omitempty" gorm:"serializer:json;type:text"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Active reports whether the task still expects work.
func (t *Task) Active() bool {
	return t.Status == TaskStatusPending || t.Status == TaskStatusInProgress
}

// TaskContext is what the assistant needs to resume a task
type TaskContext struct {
	UserID      string         `json:"user_id"`
	TaskID      string         `json:"task_id"`
	CurrentStep int            `json:"current_step"`
	TotalSteps  int            `json:"total_steps"`
	StepData    map[string]any `json:"step_data"`
	Metadata    map[string]any `json:"metadata"`
}
