package helper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	key := []byte("secret")
	tok, err := IssueToken(key, "asha", "admin", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(key, tok)
	require.NoError(t, err)
	assert.Equal(t, "asha", claims.Username)
	assert.Equal(t, "admin", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestParseTokenRejects(t *testing.T) {
	key := []byte("secret")

	expired, err := IssueToken(key, "asha", "operator", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(key, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := IssueToken([]byte("other"), "asha", "operator", time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(key, other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken(key, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("pa55")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "pa55"))
	assert.False(t, CheckPassword(hash, "nope"))
}
