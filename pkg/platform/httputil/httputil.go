// Package httputil renders JSON responses and coded domain errors.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "arrears/pkg/domain-errors"
)

// ErrorResponse is the JSON error envelope shared by every endpoint.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to its HTTP status and writes the error envelope.
// Internal errors never leak their description.
func WriteError(w http.ResponseWriter, err error) {
	code, status := ErrorStatus(err)
	resp := ErrorResponse{Error: string(code)}
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) {
			resp.ErrorDescription = de.Message
		}
	}
	WriteJSON(w, status, resp)
}

// ErrorStatus returns the domain code and HTTP status for err.
func ErrorStatus(err error) (dErrors.Code, int) {
	code := dErrors.CodeOf(err)
	return code, dErrors.ToHTTPStatus(code)
}
