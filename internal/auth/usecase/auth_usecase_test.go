package usecase

import (
	"testing"
	"time"

	"crm-assistant-backend/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth() AuthUsecase {
	return NewAuthUsecase(&config.Config{JWTSecret: "test-secret", JWTAccessExpiry: time.Hour})
}

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestIssueAndValidate(t *testing.T) {
	auth := newTestAuth()

	token, err := auth.IssueToken("owner-1")
	require.NoError(t, err)

	ownerID, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", ownerID)
}

func TestValidateFallsBackToSubject(t *testing.T) {
	token := sign(t, "test-secret", jwt.MapClaims{
		"sub": "owner-2",
		"exp": time.Now().Add(time.Minute).Unix(),
	})

	ownerID, err := newTestAuth().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "owner-2", ownerID)
}

func TestValidateRejects(t *testing.T) {
	auth := newTestAuth()

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", sign(t, "other", jwt.MapClaims{"user_id": "x", "exp": time.Now().Add(time.Minute).Unix()})},
		{"expired", sign(t, "test-secret", jwt.MapClaims{"user_id": "x", "exp": time.Now().Add(-time.Minute).Unix()})},
		{"no owner", sign(t, "test-secret", jwt.MapClaims{"exp": time.Now().Add(time.Minute).Unix()})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.ValidateToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
