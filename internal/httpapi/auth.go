package httpapi

import (
	"context"
	"net/http"
)

// Authenticator is the one contract the core consumes from the
// session/OIDC login surface spec.md §1 lists as out of scope: "a
// signed-session authentication callable". It resolves a request to a
// stable user_key (used for chat-thread ownership) or reports failure.
// The core never verifies signatures, cookies, or OIDC tokens itself —
// that surface is an external collaborator's responsibility.
type Authenticator func(r *http.Request) (userKey string, ok bool)

type userKeyCtxKey struct{}

// UserKeyFromContext returns the authenticated user_key set by
// requireAuth, or "" if absent (e.g. in a unit test that bypasses
// middleware).
func UserKeyFromContext(ctx context.Context) string {
	k, _ := ctx.Value(userKeyCtxKey{}).(string)
	return k
}

// requireAuth resolves the request's user_key via Deps.Auth and rejects
// with 401 (CodeUnauthenticated) on failure. A nil Authenticator is
// treated as single-tenant/local-dev mode: every request is attributed to
// a fixed "local" user rather than rejected, since wiring a real session
// store is explicitly out of scope (spec.md §1).
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userKey := "local"
		if h.deps.Auth != nil {
			uk, ok := h.deps.Auth(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}
			userKey = uk
		}
		ctx := context.WithValue(r.Context(), userKeyCtxKey{}, userKey)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
