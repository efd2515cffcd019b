package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	t.Run("RoundTrip", func(t *testing.T) {
		token, err := tm.GenerateAccessToken("u1", "ana@test.com", "STAFF")
		require.NoError(t, err)

		claims, err := tm.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID)
		assert.Equal(t, "STAFF", claims.Role)
		assert.Equal(t, TokenTypeAccess, claims.Type)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, err := NewTokenManager("other", time.Hour).GenerateAccessToken("u1", "", "ADMIN")
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		expired := &tokenManager{
			secret: []byte("test-secret"),
			ttl:    time.Minute,
			now:    func() time.Time { return time.Now().Add(-2 * time.Hour) },
		}
		token, err := expired.GenerateAccessToken("u1", "", "STAFF")
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := tm.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
