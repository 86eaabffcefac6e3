package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	"github.com/AdSnap-Studio/adsnap/internal/database"
	"github.com/AdSnap-Studio/adsnap/internal/models"
)

var ErrTokenUsed = errors.New("reset token already used")

// resetTokenTTL bounds how long a reset link stays valid.
const resetTokenTTL = time.Hour

// IssueResetToken creates a single-use password reset token for the account
// registered under email and returns the raw token to embed in the reset
// link. Only the SHA-256 digest of the token is persisted.
func IssueResetToken(email string) (string, error) {
	if _, err := database.GetAccountByEmail(email); err != nil {
		return "", err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(raw)

	record := &models.PasswordResetToken{
		TokenDigest: hashResetToken(token),
		Email:       email,
		ExpiresAt:   time.Now().Add(resetTokenTTL),
	}
	if err := database.InsertResetToken(record); err != nil {
		return "", err
	}

	return token, nil
}

// VerifyResetToken checks a raw reset token and returns the email it was
// issued for. Unknown tokens come back as ErrInvalidToken so a caller cannot
// distinguish a forged token from one that never existed.
func VerifyResetToken(token string) (string, error) {
	record, err := database.GetResetToken(hashResetToken(token))
	if err != nil {
		if errors.Is(err, database.ErrTokenNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}

	if record.Used {
		return "", ErrTokenUsed
	}
	if time.Now().After(record.ExpiresAt) {
		return "", ErrExpiredToken
	}

	return record.Email, nil
}

// ConsumeResetToken marks a token used so it can never be redeemed again.
func ConsumeResetToken(token string) error {
	if err := database.MarkResetTokenUsed(hashResetToken(token)); err != nil {
		if errors.Is(err, database.ErrTokenNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	return nil
}

// ResetPassword consumes a reset token and sets a new password for the
// account it was issued to. The token is marked used before the password
// changes.
func ResetPassword(token, newRawPassword string) error {
	email, err := VerifyResetToken(token)
	if err != nil {
		return err
	}

	if !ValidatePassword(newRawPassword) {
		return ErrWeakPassword
	}

	if err := ConsumeResetToken(token); err != nil {
		return err
	}

	return setPasswordByEmail(email, newRawPassword)
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
