package middleware

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"arrears/pkg/requestcontext"
)

// AdminTokenHeader carries the operator token for admin routes.
const AdminTokenHeader = "X-Admin-Token"

// adminSubject is recorded as the caller of admin requests.
const adminSubject = "admin"

// RequireAdminToken compares X-Admin-Token against a bcrypt hash.
// An empty hash disables every admin route.
func RequireAdminToken(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := r.Header.Get(AdminTokenHeader)
			if tokenHash == "" || token == "" ||
				bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)) != nil {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "admin token required")
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithSubject(ctx, adminSubject)))
		})
	}
}
