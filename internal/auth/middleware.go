package auth

import (
	"context"
	"net/http"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "adsnap_session"

type contextKey string

const identityContextKey contextKey = "identity"

// Middleware restores the identity from the session cookie, if present, and
// attaches it to the request context. Requests without a valid session pass
// through unauthenticated; handlers that need an identity use RequireAuth.
func (c *Controller) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := c.Bootstrap(cookie.Value)
		if err != nil {
			// Stale or forged cookie, clear it and continue anonymous
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    "",
				Path:     "/",
				MaxAge:   -1,
				HttpOnly: true,
			})
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects requests that carry no authenticated identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFromContext(r.Context()) == nil {
			http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IdentityFromContext returns the authenticated identity attached to ctx, or
// nil when the request is anonymous.
func IdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityContextKey).(*Identity)
	return identity
}
