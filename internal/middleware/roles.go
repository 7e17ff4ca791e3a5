// internal/middleware/roles.go
package middleware

import (
	"net/http"

	"opslink/internal/models"
	"opslink/internal/utils"
)

// Capability names an action a role may or may not perform. All
// role-gated operations consult Can so role semantics live in one
// place instead of ad-hoc comparisons in every handler.
type Capability string

const (
	// Approve/deny/take down listings and resolve edit requests
	CapModerateListings Capability = "moderate-listings"
	// See listings in every status, not just approved
	CapViewAllListings Capability = "view-all-listings"
	// Permanently delete a listing and its comments
	CapDeleteListings Capability = "delete-listings"
)

// Can is the single authorization policy: given an identity and a
// required capability, decide whether the action is allowed.
func Can(user *models.User, cap Capability) bool {
	if user == nil {
		return false
	}
	switch cap {
	case CapModerateListings, CapViewAllListings:
		return user.Role == models.RoleAdmin || user.Role == models.RoleManagement
	case CapDeleteListings:
		return user.Role == models.RoleManagement
	default:
		return false
	}
}

// Require wraps a handler with a capability check against the
// authenticated user. Must run after the Authenticator middleware.
func Require(cap Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r.Context())
			if !ok {
				writeAuthError(w, utils.NewUnauthorizedError("missing user"))
				return
			}
			if !Can(user, cap) {
				writeAuthError(w, utils.NewForbiddenError("admins or management only"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
