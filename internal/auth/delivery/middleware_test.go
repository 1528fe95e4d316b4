package delivery

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crm-assistant-backend/internal/auth/usecase"
	"crm-assistant-backend/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedRouter(auth usecase.AuthUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(auth), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("userID"))
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	auth := usecase.NewAuthUsecase(&config.Config{JWTSecret: "s", JWTAccessExpiry: time.Hour})
	token, err := auth.IssueToken("owner-7")
	require.NoError(t, err)

	r := newProtectedRouter(auth)

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, "owner-7", w.Body.String())
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	auth := usecase.NewAuthUsecase(&config.Config{JWTSecret: "s", JWTAccessExpiry: time.Hour})
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PUT("/settings", AuthMiddleware(auth), RequireAdmin([]string{"admin-1"}), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for owner, code := range map[string]int{
		"admin-1": http.StatusNoContent,
		"owner-7": http.StatusForbidden,
	} {
		token, err := auth.IssueToken(owner)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPut, "/settings", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, code, w.Code, owner)
	}
}
