package middleware

import (
	"net/http"
	"strings"
)

// The review API is browser-facing, so the allowed surface is fixed:
// the methods the storefront actually calls and the headers it sends.
const (
	corsMethods = "GET, POST, PATCH, OPTIONS"
	corsHeaders = "Accept, Content-Type, X-Correlation-ID"
	corsExposed = "X-Correlation-ID"
	corsMaxAge  = "600"
)

// CORSConfig controls which origins may call the review API.
type CORSConfig struct {
	// AllowedOrigins lists the storefront origins. "*" allows any
	// origin; outside development that should be an explicit list.
	AllowedOrigins []string

	// Environment widens the policy: in "development" every origin is
	// accepted regardless of the list.
	Environment string
}

// CORS returns middleware answering preflight requests and stamping the
// response headers for allowed origins.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	wildcard := cfg.Environment == "development"
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			wildcard = true
			continue
		}
		allowed[strings.TrimSuffix(origin, "/")] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			switch {
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "":
				if _, ok := allowed[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
			}

			w.Header().Set("Access-Control-Allow-Methods", corsMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsHeaders)
			w.Header().Set("Access-Control-Expose-Headers", corsExposed)
			w.Header().Set("Access-Control-Max-Age", corsMaxAge)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
