package auth

import (
	"crypto/rand"
	"encoding/base64"
	"log"
	"time"

	"github.com/AdSnap-Studio/adsnap/internal/database"
	"github.com/AdSnap-Studio/adsnap/internal/models"
)

// Controller bridges authenticated identities and the credential store. It
// holds no per-user state; the identity for a request always travels in that
// request's context.
type Controller struct {
	tokens *TokenManager
	ttl    time.Duration
}

// Identity is the authenticated principal attached to a request
type Identity struct {
	Account      *models.Account
	SessionToken string
	SessionStart time.Time
}

// NewController creates a session controller signing tokens with the given
// secret. TTL bounds both the session row and the signed token.
func NewController(secret string, ttl time.Duration) *Controller {
	return &Controller{
		tokens: NewTokenManager(secret),
		ttl:    ttl,
	}
}

// Login authenticates the credentials, creates a session row and returns the
// signed token the client persists across reconnects.
func (c *Controller) Login(handleOrEmail, rawPassword string) (*models.Profile, string, error) {
	profile, err := Authenticate(handleOrEmail, rawPassword)
	if err != nil {
		return nil, "", err
	}

	account, err := database.GetAccountByHandle(profile.Handle)
	if err != nil {
		return nil, "", err
	}

	sessionToken, err := generateSessionToken()
	if err != nil {
		return nil, "", err
	}

	expiresAt := time.Now().Add(c.ttl)
	if _, err := database.CreateSession(account.ID, sessionToken, expiresAt); err != nil {
		return nil, "", err
	}

	signed, err := c.tokens.GenerateToken(sessionToken, account.Handle, c.ttl)
	if err != nil {
		return nil, "", err
	}

	return profile, signed, nil
}

// Bootstrap restores an authenticated identity from a previously issued
// signed token. An absent or invalid token yields an unauthenticated start,
// not an error the caller has to branch on.
func (c *Controller) Bootstrap(signedToken string) (*Identity, error) {
	if signedToken == "" {
		return nil, ErrInvalidToken
	}

	claims, err := c.tokens.ValidateToken(signedToken)
	if err != nil {
		return nil, err
	}

	session, err := database.GetSessionByToken(claims.SessionToken)
	if err != nil {
		return nil, err
	}

	account, err := database.GetAccountByID(session.AccountID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, ErrAccountInactive
	}

	return &Identity{
		Account:      account,
		SessionToken: session.Token,
		SessionStart: session.CreatedAt,
	}, nil
}

// Logout invalidates the session row and credits the elapsed session minutes
// to the account's usage counters. Counter bookkeeping is best-effort.
func (c *Controller) Logout(identity *Identity) error {
	if identity == nil {
		return nil
	}

	minutes := int64(time.Since(identity.SessionStart).Minutes())
	if minutes > 0 {
		if err := database.IncrementCounter(identity.Account.ID, models.CounterSessionMinutes, minutes); err != nil {
			log.Printf("[AUTH] Failed to record session minutes for %s: %v", identity.Account.Handle, err)
		}
	}

	return database.DeleteSession(identity.SessionToken)
}

// CleanupExpiredSessions removes expired session records from the database.
func CleanupExpiredSessions() error {
	return database.CleanupExpiredSessions()
}

// generateSessionToken generates a random opaque session token
func generateSessionToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(tokenBytes), nil
}
