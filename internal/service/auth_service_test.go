package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/edu-resource-portal/internal/models"
	appErrors "github.com/noah-isme/edu-resource-portal/pkg/errors"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService(nil, nil, AuthConfig{
		JWTSecret:         "test-secret",
		JWTExpiration:     time.Hour,
		AdminEmail:        "admin@portal.test",
		AdminPasswordHash: string(hash),
	})
}

func TestAuthServiceLoginIssuesToken(t *testing.T) {
	svc := newAuthService(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@portal.test",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "admin@portal.test", claims.Email)
	require.Equal(t, "admin", claims.Role)
}

func TestAuthServiceLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, models.LoginRequest{Email: "admin@portal.test", Password: "wrong-password"})
	requireErrorCode(t, err, appErrors.ErrInvalidCredentials.Code)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "other@portal.test", Password: "correct-horse"})
	requireErrorCode(t, err, appErrors.ErrInvalidCredentials.Code)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "not-an-email", Password: "short"})
	requireErrorCode(t, err, appErrors.ErrValidation.Code)
}

func TestAuthServiceValidateTokenRejectsTampering(t *testing.T) {
	svc := newAuthService(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@portal.test",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken + "x")
	requireErrorCode(t, err, appErrors.ErrUnauthorized.Code)

	other := NewAuthService(nil, nil, AuthConfig{JWTSecret: "different-secret"})
	_, err = other.ValidateToken(resp.AccessToken)
	requireErrorCode(t, err, appErrors.ErrUnauthorized.Code)
}

func requireErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	typed := appErrors.FromError(err)
	require.NotNil(t, typed)
	require.Equal(t, code, typed.Code)
}
