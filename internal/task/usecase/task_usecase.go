package usecase

import (
	"log"
	"maps"
	"strconv"

	"crm-assistant-backend/internal/task/domain"
	"crm-assistant-backend/internal/task/repository"

	"github.com/google/uuid"
)

const AlreadyCompletedResponse = "Task is already completed"

// taskUsecase implements TaskUsecase interface
type taskUsecase struct {
	taskRepo repository.TaskRepository
}

// NewTaskUsecase creates a new instance of taskUsecase
func NewTaskUsecase(taskRepo repository.TaskRepository) TaskUsecase {
	return &taskUsecase{
		taskRepo: taskRepo,
	}
}

func (u *taskUsecase) CreateTask(userID, title, description string, taskType domain.TaskType, metadata map[string]any) (*domain.Task, error) {
	return u.create(userID, title, description, taskType, metadata, 1)
}

func (u *taskUsecase) CreateMultiStepTask(userID, title, description string, steps []string, taskType domain.TaskType, metadata map[string]any) (*domain.Task, error) {
	meta := make(map[string]any, len(metadata)+1)
	maps.Copy(meta, metadata)
	meta["steps"] = steps
	return u.create(userID, title, description, taskType, meta, len(steps))
}

func (u *taskUsecase) create(userID, title, description string, taskType domain.TaskType, metadata map[string]any, totalSteps int) (*domain.Task, error) {
	task := &domain.Task{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Type:        parseTaskType(taskType),
		Status:      domain.TaskStatusPending,
		CurrentStep: 0,
		TotalSteps:  totalSteps,
		StepData:    map[string]any{},
		Metadata:    metadata,
	}

	if err := u.taskRepo.Create(task); err != nil {
		return nil, err
	}

	return task, nil
}

func (u *taskUsecase) GetActiveTasks(userID string) ([]*domain.Task, error) {
	tasks, err := u.taskRepo.FindActiveByUserID(userID)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return tasks, nil
}

func (u *taskUsecase) GetTask(userID, taskID string) (*domain.Task, error) {
	task, err := u.taskRepo.FindByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, domain.ErrTaskNotFound
	}
	if task.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return task, nil
}

func (u *taskUsecase) ContinueTask(userID, taskID, userMessage string) (*ContinueResult, error) {
	task, err := u.GetTask(userID, taskID)
	if err != nil {
		return nil, err
	}

	if task.Status == domain.TaskStatusCompleted {
		return &ContinueResult{Task: task, Response: AlreadyCompletedResponse}, nil
	}

	return &ContinueResult{
		Task: task,
		Context: &domain.TaskContext{
			UserID:      task.UserID,
			TaskID:      task.ID,
			CurrentStep: task.CurrentStep,
			TotalSteps:  task.TotalSteps,
			StepData:    task.StepData,
			Metadata:    task.Metadata,
		},
		UserMessage: userMessage,
	}, nil
}

func (u *taskUsecase) ExecuteStep(userID, taskID, action string, stepData any) (*domain.Task, error) {
	task, err := u.GetTask(userID, taskID)
	if err != nil {
		return nil, err
	}

	log.Printf("[TaskUsecase] Executing step %d/%d (%s) of task %s", task.CurrentStep+1, task.TotalSteps, action, task.ID)

	updated := *task
	updated.StepData = withEntry(task.StepData, strconv.Itoa(task.CurrentStep), stepData)
	updated.CurrentStep = task.CurrentStep + 1
	updated.Status = domain.TaskStatusInProgress

	if err := u.taskRepo.Update(&updated); err != nil {
		log.Printf("[TaskUsecase] Step failed for task %s: %v", task.ID, err)
		task.Status = domain.TaskStatusFailed
		if markErr := u.taskRepo.Update(task); markErr != nil {
			log.Printf("[TaskUsecase] Failed to mark task %s as failed: %v", task.ID, markErr)
		}
		return nil, err
	}

	return &updated, nil
}

func (u *taskUsecase) CompleteTask(userID, taskID string, finalResult any) (*domain.Task, error) {
	task, err := u.GetTask(userID, taskID)
	if err != nil {
		return nil, err
	}

	task.StepData = withEntry(task.StepData, "final", finalResult)
	task.CurrentStep = task.TotalSteps
	task.Status = domain.TaskStatusCompleted

	if err := u.taskRepo.Update(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (u *taskUsecase) CancelTask(userID, taskID, reason string) (*domain.Task, error) {
	task, err := u.GetTask(userID, taskID)
	if err != nil {
		return nil, err
	}

	task.StepData = withEntry(task.StepData, "cancellationReason", reason)
	task.Status = domain.TaskStatusCancelled

	if err := u.taskRepo.Update(task); err != nil {
		return nil, err
	}
	return task, nil
}

// withEntry returns a copy of data with key set.
func withEntry(data map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(data)+1)
	maps.Copy(out, data)
	out[key] = value
	return out
}

func parseTaskType(t domain.TaskType) domain.TaskType {
	switch t {
	case domain.TaskTypeEmail, domain.TaskTypeCalendar, domain.TaskTypeHubspot:
		return t
	default:
		return domain.TaskTypeGeneral
	}
}
