package middleware

import (
	"crypto/hmac"
	"net/http"

	"github.com/amenio/amenio-api/internal/pkg/response"
)

const (
	apiKeyHeader      = "X-API-Key"
	adminAPIKeyHeader = "X-Admin-API-Key"
)

// APIKey returns middleware that authenticates trusted collaborators
// (voice gateway, resident UI backend) by shared key.
func APIKey(key string) func(http.Handler) http.Handler {
	return requireKey(apiKeyHeader, key)
}

// AdminAPIKey returns middleware protecting admin endpoints.
func AdminAPIKey(key string) func(http.Handler) http.Handler {
	return requireKey(adminAPIKeyHeader, key)
}

func requireKey(header, key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				response.Unauthorized(w, "API key authentication is not configured")
				return
			}

			got := r.Header.Get(header)
			if got == "" || !hmac.Equal([]byte(got), []byte(key)) {
				response.Unauthorized(w, "Invalid or missing API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
