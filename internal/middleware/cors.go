package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows credentialed requests so the session cookies travel with
// cross-origin calls. A wildcard origin is reflected per request because
// browsers refuse "*" together with credentials.
func CORS(origins []string) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		MaxAge:           3600,
		AllowCredentials: true,
	}

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		options.AllowedOrigins = nil
		options.AllowOriginFunc = func(string) bool { return true }
	}

	return cors.New(options).Handler
}
