package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/AdSnap-Studio/adsnap/internal/models"
)

// Reset token failures. The issuer in internal/auth distinguishes these so
// the user-facing messages can differ per case.
var (
	ErrTokenNotFound = errors.New("reset token not found")
)

// InsertResetToken persists the digest-keyed reset token record
func InsertResetToken(token *models.PasswordResetToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO password_reset_tokens (token_digest, email, expires_at, used, created_at)
		VALUES (?, ?, ?, ?, ?)`
	if dbType == "postgres" {
		query = `INSERT INTO password_reset_tokens (token_digest, email, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	}

	if _, err := dbConn.Exec(query, token.TokenDigest, token.Email,
		token.ExpiresAt, token.Used, token.CreatedAt); err != nil {
		return storageErr("insert reset token", err)
	}
	return nil
}

// GetResetToken looks up a reset token record by digest
func GetResetToken(digest string) (*models.PasswordResetToken, error) {
	token := &models.PasswordResetToken{}

	query := `SELECT token_digest, email, expires_at, used, created_at
		FROM password_reset_tokens WHERE token_digest = ?`
	if dbType == "postgres" {
		query = `SELECT token_digest, email, expires_at, used, created_at
		FROM password_reset_tokens WHERE token_digest = $1`
	}

	err := dbConn.QueryRow(query, digest).Scan(
		&token.TokenDigest, &token.Email, &token.ExpiresAt, &token.Used, &token.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, storageErr("get reset token", err)
	}
	return token, nil
}

// MarkResetTokenUsed flips the used flag so the token can never be redeemed again
func MarkResetTokenUsed(digest string) error {
	query := `UPDATE password_reset_tokens SET used = ? WHERE token_digest = ?`
	if dbType == "postgres" {
		query = `UPDATE password_reset_tokens SET used = TRUE WHERE token_digest = $1`
	}

	var result sql.Result
	var err error
	if dbType == "postgres" {
		result, err = dbConn.Exec(query, digest)
	} else {
		result, err = dbConn.Exec(query, true, digest)
	}
	if err != nil {
		return storageErr("mark reset token used", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return storageErr("mark reset token used", err)
	}
	if rows == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// CleanupExpiredResetTokens garbage-collects stale token records. Not needed
// for correctness, expired tokens are already unredeemable.
func CleanupExpiredResetTokens() error {
	query := `DELETE FROM password_reset_tokens WHERE expires_at < ?`
	if dbType == "postgres" {
		query = `DELETE FROM password_reset_tokens WHERE expires_at < $1`
	}
	if _, err := dbConn.Exec(query, time.Now()); err != nil {
		return storageErr("cleanup reset tokens", err)
	}
	return nil
}
