package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/transcribe", nil)
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, do("1.1.1.1"))
	assert.Equal(t, http.StatusNoContent, do("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("1.1.1.1"))
	assert.Equal(t, http.StatusNoContent, do("2.2.2.2"))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, http.StatusNoContent, do("1.1.1.1"))

	rl.cleanup()
	assert.Len(t, rl.buckets, 1)
}

func TestMaxBodySize(t *testing.T) {
	var readErr error
	h := MaxBodySize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
	h.ServeHTTP(httptest.NewRecorder(), req)
	var maxErr *http.MaxBytesError
	assert.ErrorAs(t, readErr, &maxErr)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123"))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NoError(t, readErr)
}

func TestLogger_PreservesStatusAndFlush(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("chunk"))
		require.NoError(t, http.NewResponseController(w).Flush())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, rec.Flushed)
	assert.Equal(t, "chunk", rec.Body.String())
}

func TestCORSHandler(t *testing.T) {
	opts := CORSHandler(nil)
	assert.Equal(t, []string{"*"}, opts.AllowedOrigins)
	assert.False(t, opts.AllowCredentials)

	opts = CORSHandler([]string{"https://app.example.com"})
	assert.True(t, opts.AllowCredentials)
}
