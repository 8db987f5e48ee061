package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koemail/admin/internal/domain"
)

func testJWTManager(expiry time.Duration) *JWTManager {
	return NewJWTManager(strings.Repeat("a", 32), "test", expiry)
}

func TestJWT_GenerateAndValidate(t *testing.T) {
	manager := testJWTManager(time.Hour)
	user := &domain.User{ID: 42, Email: "admin@example.com", Admin: true}

	token, err := manager.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.True(t, claims.Admin)
	assert.Equal(t, "test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestJWT_ExpiredToken(t *testing.T) {
	manager := testJWTManager(-time.Minute)
	user := &domain.User{ID: 1, Email: "admin@example.com", Admin: true}

	token, err := manager.GenerateToken(user)
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWT_TamperedToken(t *testing.T) {
	manager := testJWTManager(time.Hour)
	user := &domain.User{ID: 1, Email: "admin@example.com", Admin: true}

	token, err := manager.GenerateToken(user)
	require.NoError(t, err)

	_, err = manager.ValidateToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_WrongSecret(t *testing.T) {
	user := &domain.User{ID: 1, Email: "admin@example.com", Admin: true}

	token, err := testJWTManager(time.Hour).GenerateToken(user)
	require.NoError(t, err)

	other := NewJWTManager(strings.Repeat("b", 32), "test", time.Hour)
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
