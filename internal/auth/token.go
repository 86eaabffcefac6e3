package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// SessionClaims are the claims carried by a signed session token. The
// SessionToken field is the opaque value of the server-side session row; the
// JWT wrapper adds a signature and its own expiration on top.
type SessionClaims struct {
	SessionToken string `json:"session_token"`
	Handle       string `json:"handle"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates session tokens
type TokenManager struct {
	secretKey []byte
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secretKey string) *TokenManager {
	return &TokenManager{
		secretKey: []byte(secretKey),
	}
}

// GenerateToken wraps a session token in a signed JWT with the given lifetime
func (tm *TokenManager) GenerateToken(sessionToken, handle string, duration time.Duration) (string, error) {
	claims := SessionClaims{
		SessionToken: sessionToken,
		Handle:       handle,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secretKey)
}

// ValidateToken validates a signed session token and returns the claims
func (tm *TokenManager) ValidateToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return tm.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
