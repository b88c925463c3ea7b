package middleware

import (
	"net/http"

	"apa-backoffice/internal/platform/httpx"
)

// FlagChecker es el holder de feature flags (flags.Holder).
type FlagChecker interface {
	Enabled(flag string) bool
}

// RequireFlag oculta una sección pública cuando su flag está apagado: 404 como si no existiera.
func RequireFlag(flags FlagChecker, flag string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if flags != nil && !flags.Enabled(flag) {
				httpx.WriteJSON(w, http.StatusNotFound, map[string]string{
					"error": "section disabled",
					"kind":  "not_found",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
