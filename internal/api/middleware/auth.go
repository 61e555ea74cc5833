package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sheetdesk/sheetdesk/internal/api/response"
	"github.com/sheetdesk/sheetdesk/internal/auth"
	"github.com/sheetdesk/sheetdesk/internal/identity"
	"github.com/sheetdesk/sheetdesk/internal/user"
)

const identityKey contextKey = "identity"

// Auth is middleware that extracts the bearer token from the Authorization
// header, verifies it, and resolves the subject to an active user. Missing,
// malformed, or expired tokens return 401, as do tokens whose subject no
// longer exists or has been deactivated.
func Auth(authService *auth.Service, users user.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				response.Err(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				response.Err(w, http.StatusUnauthorized, "Invalid authorization header")
				return
			}

			claims, err := authService.ParseToken(token)
			if err != nil {
				response.Err(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			u, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, user.ErrNotFound) {
					response.Err(w, http.StatusUnauthorized, "Account not found or deactivated")
					return
				}
				response.Err(w, http.StatusInternalServerError, "Authentication failed")
				return
			}

			id := u.Identity()
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), &id)))
		})
	}
}

// WithIdentity returns a context carrying the given identity. Used by the
// auth middleware and by handler tests.
func WithIdentity(ctx context.Context, id *identity.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity retrieves the authenticated Identity from the request context.
func GetIdentity(ctx context.Context) *identity.Identity {
	if id, ok := ctx.Value(identityKey).(*identity.Identity); ok {
		return id
	}
	return nil
}
