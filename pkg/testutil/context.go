package testutil

import (
	"net/http"

	"arrears/pkg/requestcontext"
)

// WithSubject adds an authenticated caller to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithSubject(req *http.Request, subject string) *http.Request {
	return req.WithContext(requestcontext.WithSubject(req.Context(), subject))
}
