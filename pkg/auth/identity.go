package auth

import (
	"context"
	"net/http"
	"strings"

	"helpdesk/pkg/logger"
	"helpdesk/pkg/models"
	"helpdesk/pkg/store"
	"helpdesk/pkg/utils"
)

// Role represents the resolved caller role for a request.
type Role int

const (
	RoleUnauth Role = iota
	RoleFrontend
	RoleBackend
	RoleAdmin
)

// SecConfig mirrors the security-related configuration used to drive
// authentication, CORS and rate limiting behavior. Put here so limiter.go
// and gateway.go can reference the shared type.
type SecConfig struct {
	AllowedOrigins []string
	RPS            float64
	Burst          int
	IPWhitelist    []string
	BackendKeys    map[string]struct{}
	FrontendKeys   map[string]struct{}
	AdminKeys      map[string]struct{}
}

type ctxActorKey struct{}

// RequireActingHandler resolves the X-Admin-ID header into a stored user
// with a handler role and injects it into the request context. Admin
// actions need a named actor for assignment notes and transcript
// prefixes, so requests without a valid one are rejected.
func RequireActingHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Admin-ID"))
		if id == "" {
			logger.Warn("missing_admin_id", "path", r.URL.Path, "remote", r.RemoteAddr)
			utils.JSONError(w, http.StatusUnauthorized, "missing X-Admin-ID header")
			return
		}
		u, err := store.GetUser(id)
		if err != nil {
			logger.Warn("unknown_admin_id", "admin", id, "path", r.URL.Path)
			utils.JSONError(w, http.StatusUnauthorized, "unknown acting admin")
			return
		}
		if !u.Handler() || !u.Active {
			logger.Warn("admin_id_not_handler", "admin", id, "role", u.Role)
			utils.JSONError(w, http.StatusForbidden, "acting user is not a handler")
			return
		}
		ctx := context.WithValue(r.Context(), ctxActorKey{}, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFromContext returns the acting handler resolved by
// RequireActingHandler.
func ActorFromContext(ctx context.Context) (models.User, bool) {
	if v := ctx.Value(ctxActorKey{}); v != nil {
		if u, ok := v.(models.User); ok {
			return u, true
		}
	}
	return models.User{}, false
}
