package api

import (
	"crypto/subtle"
	"net/http"
)

// apiKeyHeader carries the shared secret on every /api request.
const apiKeyHeader = "X-Api-Key"

// checkAPIKey validates the request's API key before any store access.
// It returns an empty string when the key matches, otherwise the rejection
// message for the 401 body.
func (s *Server) checkAPIKey(r *http.Request) string {
	key := r.Header.Get(apiKeyHeader)
	if key == "" {
		return "Missing API key header"
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.APIKey)) != 1 {
		return "Invalid API key"
	}
	return ""
}

// requireKey wraps a handler with the API key check.
func (s *Server) requireKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if msg := s.checkAPIKey(r); msg != "" {
			writeError(w, http.StatusUnauthorized, msg)
			return
		}
		next(w, r)
	}
}
