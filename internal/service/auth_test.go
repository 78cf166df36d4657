package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gamerooms-backend/internal/apperror"
	"github.com/rocketscienceinc/gamerooms-backend/internal/entity"
)

func TestAuthService(t *testing.T) {
	user := entity.User{ID: "user-1", Username: "alice", Avatar: "a.png"}

	t.Run("Resolves the user a token was issued for", func(t *testing.T) {
		// Given: a token issued by the service
		auth := NewAuthService("secret", time.Hour)
		token, err := auth.GenerateToken(user)
		require.NoError(t, err)

		// When: resolving it
		resolved, err := auth.ResolveUser(token)

		// Then: the same identity comes back
		require.NoError(t, err)
		assert.Equal(t, user, *resolved)
	})

	t.Run("Rejects tokens signed with another key", func(t *testing.T) {
		token, err := NewAuthService("other", time.Hour).GenerateToken(user)
		require.NoError(t, err)

		_, err = NewAuthService("secret", time.Hour).ResolveUser(token)

		require.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("Rejects expired tokens", func(t *testing.T) {
		auth := &authServiceImpl{
			secretKey: []byte("secret"),
			tokenTTL:  time.Minute,
			now:       func() time.Time { return time.Now().Add(-time.Hour) },
		}
		token, err := auth.GenerateToken(user)
		require.NoError(t, err)

		_, err = NewAuthService("secret", time.Minute).ResolveUser(token)

		require.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("Rejects empty and unsigned tokens", func(t *testing.T) {
		auth := NewAuthService("secret", time.Hour)

		_, err := auth.ResolveUser("")
		require.ErrorIs(t, err, apperror.ErrUnauthorized)

		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = auth.ResolveUser(unsigned)
		require.ErrorIs(t, err, apperror.ErrUnauthorized)
		assert.Equal(t, apperror.KindAuth, apperror.KindOf(err))
	})
}
