package middleware

import (
	"net/http"

	"github.com/sheetdesk/sheetdesk/internal/api/response"
	"github.com/sheetdesk/sheetdesk/internal/identity"
)

// RequireRole returns middleware that rejects identities whose role is not in
// the allowed list with 403.
func RequireRole(roles ...identity.Role) func(http.Handler) http.Handler {
	allowed := make(map[identity.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := GetIdentity(r.Context())
			if id == nil {
				response.Err(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			if !allowed[id.Role] {
				response.Err(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects any identity that is not an admin with 403.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(identity.RoleAdmin)
}
