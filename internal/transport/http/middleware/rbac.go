package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"staffhub/internal/transport/http/api"
)

// PermissionStore answers whether a role carries a named permission. The
// auth store implements it over the role_permissions table.
type PermissionStore interface {
	HasPermission(ctx context.Context, roleID, permission string) (bool, error)
}

// RequirePermission gates a route on one permission. Anonymous requests
// get 401, authenticated ones without the permission get 403, and denials
// are logged so repeated probing shows up in the request log.
func RequirePermission(permission string, store PermissionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
				return
			}

			allowed, err := store.HasPermission(r.Context(), user.RoleID, permission)
			if err != nil {
				api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", requestID)
				return
			}
			if !allowed {
				slog.Warn("permission denied",
					"userId", user.UserID,
					"role", user.RoleName,
					"permission", permission,
					"path", r.URL.Path,
				)
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
