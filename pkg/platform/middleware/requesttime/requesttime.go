// Package requesttime pins one "now" per request so history entries, code
// expiries and audit timestamps written by the same request agree.
package requesttime

import (
	"net/http"
	"time"

	"lectern/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
