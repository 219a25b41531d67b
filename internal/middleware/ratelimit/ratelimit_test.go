package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, rpm int) (*Limiter, *time.Time) {
	t.Helper()
	l := NewLimiter(Config{RequestsPerMinute: rpm, CleanupInterval: time.Hour})
	t.Cleanup(l.Stop)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllow(t *testing.T) {
	l, now := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("1.2.3.4"), "request %d", i+1)
	}
	assert.False(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("5.6.7.8"), "other clients have their own window")

	*now = now.Add(time.Minute)
	assert.True(t, l.Allow("1.2.3.4"), "window resets after a minute")

	stats := l.Stats()
	assert.Equal(t, 2, stats.Clients)
	assert.EqualValues(t, 1, stats.Rejected)
}

func TestRetryAfter(t *testing.T) {
	l, now := newTestLimiter(t, 1)

	assert.Zero(t, l.RetryAfter("unknown"))
	l.Allow("a")
	*now = now.Add(20 * time.Second)
	assert.Equal(t, 40*time.Second, l.RetryAfter("a"))
}

func TestSweep(t *testing.T) {
	l, now := newTestLimiter(t, 10)

	l.Allow("old")
	*now = now.Add(5 * time.Minute)
	l.Allow("fresh")
	*now = now.Add(6 * time.Minute)

	assert.Equal(t, 1, l.sweep())
	assert.Equal(t, 1, l.Stats().Clients)
}

func TestStopTwice(t *testing.T) {
	l := NewLimiter(DefaultConfig())
	l.Stop()
	assert.NotPanics(t, l.Stop)
}

func TestMiddleware(t *testing.T) {
	l, _ := newTestLimiter(t, 1)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	key := func(r *http.Request) string { return "client" }

	t.Run("default rejection", func(t *testing.T) {
		h := l.Middleware(key, nil)(ok)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	})

	t.Run("custom rejection", func(t *testing.T) {
		called := false
		h := l.Middleware(key, func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusServiceUnavailable)
		})(ok)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.True(t, called)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
