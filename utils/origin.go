package utils

import (
	"net/http"
	"strings"
)

// OriginChecker allows "*" or any origin in a comma-separated list. Requests
// without an Origin header come from non-browser clients and are allowed.
func OriginChecker(corsOrigin string) func(*http.Request) bool {
	allowed := AllowedOrigins(corsOrigin)
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set["*"] || set[origin]
	}
}

// AllowedOrigins splits a CORS_ORIGIN value into its entries.
func AllowedOrigins(corsOrigin string) []string {
	var out []string
	for _, o := range strings.Split(corsOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		out = []string{"*"}
	}
	return out
}
