package middlewares

import (
	"net/http"
)

// BodyLimit caps request body size before any handler reads it. Oversized
// bodies fail at decode time with a parse error rather than filling
// memory; screening answer submissions are the largest legitimate payload
// and stay well under the configured cap.
func (m *Middlewares) BodyLimit(next http.Handler) http.Handler {
	maxBytes := int64(m.InternalConfig.App.RequestBodyLimitInMegabyte) << 20
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}
