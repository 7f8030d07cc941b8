// Package middleware provides HTTP middlewares for session checks and logging.
package middleware

import (
	"context"
	"net/http"

	"github.com/atinyakov/hacklearn/internal/models"
)

type ctxKey string

const userKey ctxKey = "user"

// IdentityProvider exposes the signed-in user.
type IdentityProvider interface {
	CurrentUser() *models.Identity
}

// RequireSession rejects requests while nobody is signed in.
//
// On success it stores a copy of the current identity in the request
// context, so handlers can read it with IdentityFromContext.
func RequireSession(identity IdentityProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := identity.CurrentUser()
			if u == nil {
				http.Error(w, "not authenticated", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), userKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext extracts the identity stored by RequireSession.
// Returns nil if not found.
func IdentityFromContext(ctx context.Context) *models.Identity {
	if u, ok := ctx.Value(userKey).(*models.Identity); ok {
		return u
	}
	return nil
}
