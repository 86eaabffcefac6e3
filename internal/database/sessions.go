package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/AdSnap-Studio/adsnap/internal/models"
	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session has expired")
)

// CreateSession persists a new session row for an account
func CreateSession(accountID int64, token string, expiresAt time.Time) (*models.Session, error) {
	session := &models.Session{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Token:     token,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}

	query := `INSERT INTO sessions (id, account_id, token, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`
	if dbType == "postgres" {
		query = `INSERT INTO sessions (id, account_id, token, created_at, expires_at) VALUES ($1, $2, $3, $4, $5)`
	}

	if _, err := dbConn.Exec(query, session.ID, session.AccountID, session.Token,
		session.CreatedAt, session.ExpiresAt); err != nil {
		return nil, storageErr("create session", err)
	}
	return session, nil
}

// GetSessionByToken looks up a session by its opaque token value.
// Expired sessions are deleted on sight and reported as expired.
func GetSessionByToken(token string) (*models.Session, error) {
	session := &models.Session{}

	query := `SELECT id, account_id, token, created_at, expires_at FROM sessions WHERE token = ?`
	if dbType == "postgres" {
		query = `SELECT id, account_id, token, created_at, expires_at FROM sessions WHERE token = $1`
	}

	err := dbConn.QueryRow(query, token).Scan(
		&session.ID, &session.AccountID, &session.Token, &session.CreatedAt, &session.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, storageErr("get session", err)
	}

	if session.ExpiresAt.Before(time.Now()) {
		DeleteSession(token)
		return nil, ErrSessionExpired
	}
	return session, nil
}

// DeleteSession removes a session by its token
func DeleteSession(token string) error {
	query := `DELETE FROM sessions WHERE token = ?`
	if dbType == "postgres" {
		query = `DELETE FROM sessions WHERE token = $1`
	}
	result, err := dbConn.Exec(query, token)
	if err != nil {
		return storageErr("delete session", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return storageErr("delete session", err)
	}
	if rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// CleanupExpiredSessions removes all sessions past their expiration time
func CleanupExpiredSessions() error {
	query := `DELETE FROM sessions WHERE expires_at < ?`
	if dbType == "postgres" {
		query = `DELETE FROM sessions WHERE expires_at < $1`
	}
	if _, err := dbConn.Exec(query, time.Now()); err != nil {
		return storageErr("cleanup sessions", err)
	}
	return nil
}
