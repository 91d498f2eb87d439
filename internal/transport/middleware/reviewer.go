package middleware

import (
	"net/http"

	"github.com/pezware/mirubato-sub004/pkg/ctxutil"
)

// Reviewer propagates the reviewer identity header into the context.
// Authentication happens upstream; this service only records who acted.
func Reviewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reviewer := r.Header.Get("X-Reviewer"); reviewer != "" {
			r = r.WithContext(ctxutil.WithReviewer(r.Context(), reviewer))
		}
		next.ServeHTTP(w, r)
	})
}
