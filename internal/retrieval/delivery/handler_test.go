package delivery

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"crm-assistant-backend/internal/retrieval/domain"
	"crm-assistant-backend/internal/retrieval/dto"
	"crm-assistant-backend/internal/retrieval/repository"
	"crm-assistant-backend/internal/retrieval/usecase"
	"crm-assistant-backend/pkg/crypto"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router   *gin.Engine
	emails   *repository.MemoryStore
	contacts *repository.MemoryStore
	notes    *repository.MemoryStore
	accounts *repository.MemoryMailAccounts
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		emails:   repository.NewMemoryStore(domain.EntityEmail, 0),
		contacts: repository.NewMemoryStore(domain.EntityContact, 0),
		notes:    repository.NewMemoryStore(domain.EntityNote, 0),
		accounts: repository.NewMemoryMailAccounts(),
	}
	stores := []repository.RecordStore{env.emails, env.contacts, env.notes}

	retrieval := usecase.NewRetrievalUsecase(nil, stores, usecase.Options{Dimension: 3})
	importer := usecase.NewImportUsecase(repository.NewMemoryImporter(env.emails, env.contacts, env.notes), stores, nil)
	mail := usecase.NewMailSearchUsecase(env.accounts, env.contacts, map[string]usecase.MailProvider{}, "test-key")
	h := NewRetrievalHandler(retrieval, importer, mail, "none", 3)

	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		c.Set("userID", "u1")
		c.Next()
	})
	api.POST("/search/context", h.GetContext)
	api.POST("/search/mail", h.SearchMail)
	api.POST("/search/:type", h.Search)
	api.GET("/rag/status", h.Status)
	api.POST("/import/:type", h.Import)
	api.DELETE("/records", h.DeleteRecords)
	api.PUT("/mail/account", h.ConnectMailAccount)
	env.router = r
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestImportThenSearch(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/import/contacts", gin.H{"records": []gin.H{
		{"contact_id": "1", "first_name": "John", "last_name": "Doe", "email": "john.doe@example.com", "company": "Acme Corp"},
		{"contact_id": "2", "first_name": "Jane", "last_name": "Smith", "email": "jane@example.com", "company": "Globex"},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var imported dto.ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &imported))
	assert.Equal(t, domain.EntityContact, imported.Type)
	assert.Equal(t, 2, imported.Result.Imported)

	w = env.do(t, http.MethodPost, "/api/search/contact", gin.H{"query": "acme"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "John Doe", resp.Results[0].Contact.Name)
	assert.Equal(t, usecase.LexicalScore, resp.Results[0].Relevance)
}

func TestImportDropsEmbeddingOfWrongDimension(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/import/notes", gin.H{"records": []gin.H{
		{"note_id": "n1", "content": "kept", "embedding": []float64{1, 0, 0}},
		{"note_id": "n2", "content": "dropped", "embedding": []float64{1, 0}},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	count, err := env.notes.Count(t.Context(), "u1")
	require.NoError(t, err)
	assert.Equal(t, repository.RecordCount{Total: 2, Embedded: 1}, count)
}

func TestImportRejectsInvalidPayload(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/import/emails", gin.H{"records": []gin.H{{"subject": "no id"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/import/tasks", gin.H{"records": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchUnknownType(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/search/deals", gin.H{"query": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetContextIncludesPromptContext(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/import/emails", gin.H{"records": []gin.H{
		{"message_id": "m1", "subject": "Quarterly budget", "sender": "cfo@example.com", "body": "Budget attached."},
	}})

	w := env.do(t, http.MethodPost, "/api/search/context", gin.H{"query": "budget"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.ContextResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.RetrievalContext)
	assert.Len(t, resp.Results, 1)
	assert.Contains(t, resp.PromptContext, "[email]")
	assert.Contains(t, resp.PromptContext, "Quarterly budget")
}

func TestSearchMailWithoutAccount(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/search/mail", gin.H{"query": "from jane"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConnectMailAccount(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/api/mail/account", gin.H{"provider": "imap", "imap_server": "imap.example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/mail/account", gin.H{
		"provider": "imap", "address": "me@example.com",
		"imap_server": "imap.example.com", "imap_port": 993, "imap_password": "secret",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "secret")

	account, err := env.accounts.FindByOwner("u1")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, domain.MailProviderIMAP, account.Provider)
	assert.NotEqual(t, "secret", account.ImapPassword)
	plain, err := crypto.Decrypt(account.ImapPassword, "test-key")
	require.NoError(t, err)
	assert.Equal(t, "secret", plain)
}

func TestStatusAndDelete(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/import/notes", gin.H{"records": []gin.H{{"note_id": "n1", "content": "call back"}}})

	w := env.do(t, http.MethodGet, "/api/rag/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status dto.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, int64(1), status.Counts[domain.EntityNote].Total)
	assert.Equal(t, 3, status.Dimension)

	w = env.do(t, http.MethodDelete, "/api/records", nil)
	require.Equal(t, http.StatusOK, w.Code)

	count, err := env.notes.Count(t.Context(), "u1")
	require.NoError(t, err)
	assert.Zero(t, count.Total)
}
