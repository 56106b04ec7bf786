package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS returns middleware allowing the storefront frontends in origins.
// extraHeaders are added to the allowed request headers, e.g. a custom
// cart session header.
func CORS(origins []string, extraHeaders ...string) func(http.Handler) http.Handler {
	allowed := []string{"Accept", "Content-Type", "Idempotency-Key", "X-Requested-With", DefaultCartSessionHeader}
	for _, h := range extraHeaders {
		if h != "" && h != DefaultCartSessionHeader {
			allowed = append(allowed, h)
		}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   allowed,
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
