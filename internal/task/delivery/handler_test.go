package delivery

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"crm-assistant-backend/internal/task/domain"
	"crm-assistant-backend/internal/task/repository"
	"crm-assistant-backend/internal/task/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTaskRouter(userID string, repo repository.TaskRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTaskHandler(usecase.NewTaskUsecase(repo))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.GET("/api/tasks", h.GetActiveTasks)
	r.POST("/api/tasks", h.CreateTask)
	r.GET("/api/tasks/:id", h.GetTaskByID)
	r.POST("/api/tasks/:id/steps", h.ExecuteStep)
	r.POST("/api/tasks/:id/cancel", h.CancelTask)
	return r
}

func send(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	r := newTaskRouter("u1", repository.NewMemoryTaskRepository())

	w := send(t, r, http.MethodPost, "/api/tasks", gin.H{"title": "Onboard", "type": "HUBSPOT", "steps": []string{"create", "notify"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var task domain.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	assert.Equal(t, 2, task.TotalSteps)

	w = send(t, r, http.MethodPost, "/api/tasks/"+task.ID+"/steps", gin.H{"action": "create", "data": "contact-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = send(t, r, http.MethodGet, "/api/tasks/"+task.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	assert.Equal(t, domain.TaskStatusInProgress, task.Status)
	assert.Equal(t, "contact-1", task.StepData["0"])

	w = send(t, r, http.MethodPost, "/api/tasks/"+task.ID+"/cancel", gin.H{"reason": "duplicate"})
	require.Equal(t, http.StatusOK, w.Code)

	w = send(t, r, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":0`)
}

func TestTaskErrors(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	other := &domain.Task{ID: "t1", UserID: "someone-else", Title: "theirs", Status: domain.TaskStatusPending}
	require.NoError(t, repo.Create(other))
	r := newTaskRouter("u1", repo)

	assert.Equal(t, http.StatusNotFound, send(t, r, http.MethodGet, "/api/tasks/missing", nil).Code)
	assert.Equal(t, http.StatusForbidden, send(t, r, http.MethodGet, "/api/tasks/t1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, send(t, r, http.MethodPost, "/api/tasks", gin.H{"description": "no title"}).Code)
}
