// Package requesttime pins a single "now" per HTTP request so every timestamp
// written while serving it (record times, audit entries, project numbers) agrees.
package requesttime

import (
	"net/http"
	"time"

	"reviewdraw/pkg/requestcontext"
)

// Middleware captures time.Now at request start.
func Middleware(next http.Handler) http.Handler {
	return WithClock(time.Now)(next)
}

// WithClock is Middleware with an injectable clock.
func WithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
