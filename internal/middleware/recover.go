package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"apa-backoffice/internal/platform/httpx"
	"apa-backoffice/internal/platform/logger"
)

// Recover reemplaza a chimw.Recoverer: loguea el panic con el logger del request
// y responde 500 en JSON.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.FromContext(r.Context(), nil).Error("panic", map[string]any{
				"panic": fmt.Sprint(rec),
				"stack": string(debug.Stack()),
			})
			httpx.WriteJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "internal error",
				"kind":  "internal",
			})
		}()
		next.ServeHTTP(w, r)
	})
}
