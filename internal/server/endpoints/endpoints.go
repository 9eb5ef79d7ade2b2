// Package endpoints defines the HTTP API surface. Each endpoint implements
// api.Endpoint, contributing both an HTTP route and a CLI command.
package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/slidesmith/slidesmith/internal/ratelimit"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// limited wraps a handler with a per-client rate limiter. A nil limiter
// leaves the handler unwrapped.
func limited(l *ratelimit.Limiter, h http.HandlerFunc) http.HandlerFunc {
	if l == nil {
		return h
	}
	return l.Middleware(h).ServeHTTP
}

// decodeJSON decodes a request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
