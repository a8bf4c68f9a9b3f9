package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gurukul-ai/backend/internal/service/auth"
	"github.com/gurukul-ai/backend/pkg/utils"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller injected into the request context.
type Identity struct {
	UserID string
	Role   string
}

// RequireAuth validates the Bearer token and stores the caller's
// identity in the request context.
func RequireAuth(authSvc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				utils.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := authSvc.Verify(strings.TrimSpace(token))
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			identity := Identity{UserID: claims.Subject, Role: claims.Role}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
		})
	}
}

// IdentityFrom extracts the authenticated identity, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
