package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "credex/pkg/domain-errors"
)

func TestJWTService(t *testing.T) {
	service := NewJWTService("test-signing-key", "credex", "credex-api")

	t.Run("round trip carries subject and role", func(t *testing.T) {
		token, err := service.GenerateAccessToken("officer-1", "credit_officer", time.Hour)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := service.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "officer-1", claims.Subject)
		assert.Equal(t, "credit_officer", claims.Role)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token, err := service.GenerateAccessToken("officer-1", "admin", -time.Minute)
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("token signed with a different key rejected", func(t *testing.T) {
		other := NewJWTService("another-key", "credex", "credex-api")
		token, err := other.GenerateAccessToken("officer-1", "admin", time.Hour)
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		_, err := service.ValidateToken("not.a.token")
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})

	t.Run("token without subject rejected", func(t *testing.T) {
		token, err := service.GenerateAccessToken("", "admin", time.Hour)
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no subject")
	})
}
