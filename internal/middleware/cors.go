// Package middleware provides HTTP middleware for the C-LEIA API.
package middleware

import (
	"net/http"
	"slices"
)

// CORS returns middleware that handles CORS headers for the browser
// frontends. A "*" entry allows any origin without credentials.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	wildcard := slices.Contains(allowedOrigins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			explicit := origin != "" && slices.Contains(allowedOrigins, origin)

			if origin != "" && (wildcard || explicit) {
				h := w.Header()
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
				// Credentials only for explicit origins; echoing a wildcard match with credentials enables CSRF.
				if explicit {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
