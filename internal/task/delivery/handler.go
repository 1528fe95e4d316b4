package delivery

import (
	"errors"
	"net/http"

	"crm-assistant-backend/internal/task/domain"
	"crm-assistant-backend/internal/task/usecase"

	"github.com/gin-gonic/gin"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskUsecase usecase.TaskUsecase
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskUsecase usecase.TaskUsecase) *TaskHandler {
	return &TaskHandler{
		taskUsecase: taskUsecase,
	}
}

// CreateTaskRequest represents the request body for creating a task
type CreateTaskRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Type        domain.TaskType `json:"type"`
	Steps       []string        `json:"steps"`
	Metadata    map[string]any  `json:"metadata"`
}

type ExecuteStepRequest struct {
	Action string `json:"action" binding:"required"`
	Data   any    `json:"data"`
}

// GetActiveTasks returns pending and in-progress tasks for the authenticated user
// GET /api/tasks
func (h *TaskHandler) GetActiveTasks(c *gin.Context) {
	userID := c.GetString("userID")

	tasks, err := h.taskUsecase.GetActiveTasks(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": len(tasks),
	})
}

// GetTaskByID returns a specific task
// GET /api/tasks/:id
func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	userID := c.GetString("userID")
	taskID := c.Param("id")

	task, err := h.taskUsecase.GetTask(userID, taskID)
	if err != nil {
		writeTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// CreateTask creates a single or multi-step task
// POST /api/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID := c.GetString("userID")

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		task *domain.Task
		err  error
	)
	if len(req.Steps) > 0 {
		task, err = h.taskUsecase.CreateMultiStepTask(userID, req.Title, req.Description, req.Steps, req.Type, req.Metadata)
	} else {
		task, err = h.taskUsecase.CreateTask(userID, req.Title, req.Description, req.Type, req.Metadata)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, task)
}

// ContinueTask returns the context needed to resume a task
// POST /api/tasks/:id/continue
func (h *TaskHandler) ContinueTask(c *gin.Context) {
	userID := c.GetString("userID")
	taskID := c.Param("id")

	var req struct {
		UserMessage string `json:"user_message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.taskUsecase.ContinueTask(userID, taskID, req.UserMessage)
	if err != nil {
		writeTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExecuteStep records the result of the current step
// POST /api/tasks/:id/steps
func (h *TaskHandler) ExecuteStep(c *gin.Context) {
	userID := c.GetString("userID")
	taskID := c.Param("id")

	var req ExecuteStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskUsecase.ExecuteStep(userID, taskID, req.Action, req.Data)
	if err != nil {
		writeTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": task, "result": req.Data})
}

// CompleteTask marks a task as completed
// POST /api/tasks/:id/complete
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	userID := c.GetString("userID")
	taskID := c.Param("id")

	var req struct {
		FinalResult any `json:"final_result"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskUsecase.CompleteTask(userID, taskID, req.FinalResult)
	if err != nil {
		writeTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// CancelTask cancels a task
// POST /api/tasks/:id/cancel
func (h *TaskHandler) CancelTask(c *gin.Context) {
	userID := c.GetString("userID")
	taskID := c.Param("id")

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskUsecase.CancelTask(userID, taskID, req.Reason)
	if err != nil {
		writeTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func writeTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
