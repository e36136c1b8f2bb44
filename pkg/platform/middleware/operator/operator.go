// Package operator attributes requests to the operator named in X-Operator-ID.
//
// The header is taken at face value: it feeds audit attribution and logs and is
// not an authentication mechanism.
package operator

import (
	"net/http"
	"strings"
	"unicode"

	"reviewdraw/pkg/requestcontext"
)

const (
	Header    = "X-Operator-ID"
	maxLength = 64
	Anonymous = "anonymous"
)

// Middleware stores the sanitized operator id in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithOperatorID(r.Context(), FromRequest(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromRequest returns the operator id, or Anonymous when missing or unusable.
func FromRequest(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get(Header))
	if raw == "" {
		return Anonymous
	}
	if len(raw) > maxLength {
		raw = raw[:maxLength]
	}
	clean := strings.Map(func(c rune) rune {
		if unicode.IsControl(c) {
			return -1
		}
		return c
	}, raw)
	if clean == "" {
		return Anonymous
	}
	return clean
}
