package middleware

import "net/http"

// DefaultMaxBody is the body limit for JSON endpoints.
const DefaultMaxBody = 1 << 20

// MaxBodySize limits request bodies to maxBytes. Reads past the limit fail
// with *http.MaxBytesError.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
