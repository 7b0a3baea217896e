package middleware

import (
	"net/http"

	wrap "github.com/adilzhm/fleet-tracking-system/pkg/logger/wrapper"
	"github.com/adilzhm/fleet-tracking-system/pkg/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID carries the client-supplied request id through the context,
// generating one when the header is absent. The id comes back on the
// response and correlates log lines and published messages.
func (a *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			id, err := uuid.New()
			if err == nil {
				requestID = id.String()
			}
		}

		if requestID != "" {
			w.Header().Set(requestIDHeader, requestID)
			r = r.WithContext(wrap.WithRequestID(r.Context(), requestID))
		}

		next.ServeHTTP(w, r)
	})
}
