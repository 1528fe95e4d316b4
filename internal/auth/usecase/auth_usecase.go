package usecase

import (
	"errors"
	"time"

	"crm-assistant-backend/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// AuthUsecase turns bearer tokens issued by the CRM into owner ids
type AuthUsecase interface {
	ValidateToken(tokenString string) (string, error)
	IssueToken(ownerID string) (string, error)
}

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	secret []byte
	expiry time.Duration
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(cfg *config.Config) AuthUsecase {
	return &authUsecase{
		secret: []byte(cfg.JWTSecret),
		expiry: cfg.JWTAccessExpiry,
	}
}

func (u *authUsecase) IssueToken(ownerID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": ownerID,
		"exp":     time.Now().Add(u.expiry).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(u.secret)
}

func (u *authUsecase) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return u.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	// Tokens minted by the CRM carry the subject instead of user_id
	if userID, ok := claims["user_id"].(string); ok && userID != "" {
		return userID, nil
	}
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub, nil
	}
	return "", ErrInvalidToken
}
