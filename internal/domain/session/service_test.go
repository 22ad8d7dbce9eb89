package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestService_CreateAndValidate(t *testing.T) {
	service := NewService("test-secret", time.Hour, slog.Default())

	token, err := service.Create(context.Background(), "user-42")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	userID, err := service.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestService_Create_EmptyUser(t *testing.T) {
	service := NewService("test-secret", time.Hour, slog.Default())

	_, err := service.Create(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyUserID)
}

func TestService_Validate_Errors(t *testing.T) {
	service := NewService("test-secret", time.Hour, slog.Default())
	other := NewService("other-secret", time.Hour, slog.Default())

	foreign, err := other.Create(context.Background(), "user-42")
	require.NoError(t, err)

	expiredService := NewService("test-secret", time.Hour, slog.Default())
	expiredService.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredService.Create(context.Background(), "user-42")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: "user-42",
		Issuer:  issuer,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong secret", token: foreign},
		{name: "expired", token: expired},
		{name: "alg none", token: none},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Validate(context.Background(), tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
