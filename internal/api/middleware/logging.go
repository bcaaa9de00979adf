package middleware

import (
	"log"
	"net/http"
	"time"
)

// statusWriter records the response status. Unwrap lets http.ResponseController
// reach the underlying writer's Flush for streamed responses.
type statusWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int64
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	n, err := w.ResponseWriter.Write(p)
	w.bytes += int64(n)
	return n, err
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// silentPaths are only logged on errors (status >= 400).
var silentPaths = map[string]bool{
	"/":       true,
	"/device": true,
}

func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		if silentPaths[r.URL.Path] && wrapped.statusCode < 400 {
			return
		}
		log.Printf("%s %s %d %dB %s", r.Method, r.URL.Path, wrapped.statusCode, wrapped.bytes, time.Since(start))
	})
}
