package admin

import (
	"log/slog"
	"net/http"

	"lectern/pkg/requestcontext"
)

// RoleAdmin is the token role allowed to adjudicate verifications.
const RoleAdmin = "admin"

// RequireAdmin rejects callers whose authenticated role is not admin. It must
// run after auth.RequireAuth.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.Role(ctx) != RoleAdmin {
				logger.WarnContext(ctx, "admin route denied",
					"request_id", requestcontext.RequestID(ctx),
					"user_id", requestcontext.UserID(ctx).String(),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"admin role required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
