package daemon

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"reelsmith/internal/api"
)

// authMiddleware guards an HTTP handler with a bearer token. An empty
// token disables authentication and passes every request through.
func authMiddleware(token string, next http.HandlerFunc) http.HandlerFunc {
	if token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "unauthorized"})
			return
		}
		next(w, r)
	}
}
