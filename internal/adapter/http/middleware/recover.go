package middleware

import (
	"fmt"
	"net/http"
)

// Recover converts a handler panic into a 500 so one bad sample cannot
// take the ingest surface down.
func (a *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				a.log.Error(r.Context(), "recovered from panic", fmt.Errorf("%v", p), "URL", r.URL.Path)
				w.Header().Set("Connection", "close")
				errorResponse(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
