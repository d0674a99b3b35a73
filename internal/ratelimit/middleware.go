package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"arrears/pkg/platform/httputil"
	"arrears/pkg/requestcontext"
)

// ExceededResponse is the 429 body.
type ExceededResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RetryAfter       int    `json:"retry_after"`
}

// Middleware limits each caller to a number of requests per window. Callers
// are identified by the authenticated subject, or the client IP before auth.
type Middleware struct {
	store  Store
	limit  int
	window time.Duration
	logger *slog.Logger
}

func NewMiddleware(store Store, limit int, window time.Duration, logger *slog.Logger) *Middleware {
	return &Middleware{store: store, limit: limit, window: window, logger: logger}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := callerKey(r)

		result, err := m.store.Allow(ctx, key, m.limit, m.window)
		if err != nil {
			// fail open
			m.logger.ErrorContext(ctx, "failed to check rate limit",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"caller", key,
				"request_id", requestcontext.RequestID(ctx),
			)
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
			httputil.WriteJSON(w, http.StatusTooManyRequests, ExceededResponse{
				Error:            "rate_limit_exceeded",
				ErrorDescription: "Too many requests. Please try again later.",
				RetryAfter:       result.RetryAfter,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerKey(r *http.Request) string {
	if subject := requestcontext.Subject(r.Context()); subject != "" {
		return "subject:" + subject
	}
	return "ip:" + requestcontext.ClientIP(r.Context())
}
