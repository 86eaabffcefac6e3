package auth

import (
	"testing"
	"time"

	"github.com/AdSnap-Studio/adsnap/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetTokenRoundTrip(t *testing.T) {
	setupTestDB(t)

	_, err := CreateAccount("alice", "alice@example.com", "secret1", "")
	require.NoError(t, err)

	token, err := IssueResetToken("alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	email, err := VerifyResetToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)

	// Verification alone does not consume the token
	email, err = VerifyResetToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)
}

func TestIssueResetTokenUnknownEmail(t *testing.T) {
	setupTestDB(t)

	token, err := IssueResetToken("nobody@example.com")
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.Empty(t, token)
}

func TestVerifyResetTokenInvalid(t *testing.T) {
	setupTestDB(t)

	_, err := VerifyResetToken("made-up-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestConsumeResetToken(t *testing.T) {
	setupTestDB(t)

	_, err := CreateAccount("fiona", "fiona@example.com", "secret1", "")
	require.NoError(t, err)

	token, err := IssueResetToken("fiona@example.com")
	require.NoError(t, err)

	email, err := VerifyResetToken(token)
	require.NoError(t, err)
	assert.Equal(t, "fiona@example.com", email)

	require.NoError(t, ConsumeResetToken(token))

	_, err = VerifyResetToken(token)
	assert.ErrorIs(t, err, ErrTokenUsed)

	assert.ErrorIs(t, ConsumeResetToken("never-issued"), ErrInvalidToken)
}

func TestResetPasswordFlow(t *testing.T) {
	setupTestDB(t)

	_, err := CreateAccount("bob", "bob@example.com", "secret1", "")
	require.NoError(t, err)

	token, err := IssueResetToken("bob@example.com")
	require.NoError(t, err)

	require.NoError(t, ResetPassword(token, "secret2"))

	_, err = Authenticate("bob", "secret1")
	assert.ErrorIs(t, err, ErrBadCredential)

	_, err = Authenticate("bob", "secret2")
	assert.NoError(t, err)

	// A consumed token cannot be replayed
	err = ResetPassword(token, "secret3")
	assert.ErrorIs(t, err, ErrTokenUsed)

	_, err = Authenticate("bob", "secret2")
	assert.NoError(t, err)
}

func TestResetPasswordWeakPassword(t *testing.T) {
	setupTestDB(t)

	_, err := CreateAccount("carol", "carol@example.com", "secret1", "")
	require.NoError(t, err)

	token, err := IssueResetToken("carol@example.com")
	require.NoError(t, err)

	err = ResetPassword(token, "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	// The failed attempt did not burn the token
	require.NoError(t, ResetPassword(token, "secret2"))
}

func TestExpiredResetToken(t *testing.T) {
	setupTestDB(t)

	_, err := CreateAccount("dave", "dave@example.com", "secret1", "")
	require.NoError(t, err)

	token, err := IssueResetToken("dave@example.com")
	require.NoError(t, err)

	// Age the stored record past its lifetime
	digest := hashResetToken(token)
	_, execErr := database.GetConnection().Exec(
		"UPDATE password_reset_tokens SET expires_at = ? WHERE token_digest = ?",
		time.Now().Add(-2*time.Hour), digest)
	require.NoError(t, execErr)

	_, err = VerifyResetToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)

	err = ResetPassword(token, "secret2")
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestResetTokensAreSingleUsePerIssue(t *testing.T) {
	setupTestDB(t)

	_, err := CreateAccount("erin", "erin@example.com", "secret1", "")
	require.NoError(t, err)

	first, err := IssueResetToken("erin@example.com")
	require.NoError(t, err)
	second, err := IssueResetToken("erin@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	// Consuming one leaves the other valid
	require.NoError(t, ResetPassword(first, "secret2"))

	email, err := VerifyResetToken(second)
	require.NoError(t, err)
	assert.Equal(t, "erin@example.com", email)
}
