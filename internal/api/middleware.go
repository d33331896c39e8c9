// Package api implements the notetidy REST API using chi.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// tokenQueryParam carries the token for EventSource clients, which cannot set headers.
const tokenQueryParam = "access_token"

// AuthMiddleware returns middleware that validates a Bearer token.
// With enabled false every request passes. Otherwise the token comes from
// "Authorization: Bearer <token>" or, for GET requests only, the access_token
// query parameter.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			got, ok := requestToken(r)
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestToken(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.CutPrefix(auth, "Bearer ")
	}
	if r.Method == http.MethodGet {
		if t := r.URL.Query().Get(tokenQueryParam); t != "" {
			return t, true
		}
	}
	return "", false
}
