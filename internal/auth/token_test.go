package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	tm := NewTokenManager("test-secret")

	signed, err := tm.GenerateToken("opaque-session-value", "alice", 1*time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, signed)

	claims, err := tm.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "opaque-session-value", claims.SessionToken)
	assert.Equal(t, "alice", claims.Handle)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	tm := NewTokenManager("test-secret")
	other := NewTokenManager("different-secret")

	signed, err := tm.GenerateToken("opaque", "bob", 1*time.Hour)
	require.NoError(t, err)

	claims, err := other.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestValidateExpiredToken(t *testing.T) {
	tm := NewTokenManager("test-secret")

	signed, err := tm.GenerateToken("opaque", "carol", -1*time.Minute)
	require.NoError(t, err)

	claims, err := tm.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestValidateGarbageToken(t *testing.T) {
	tm := NewTokenManager("test-secret")

	claims, err := tm.ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)

	claims, err = tm.ValidateToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}
