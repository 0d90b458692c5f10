package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(handler http.Handler, remoteAddr string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestRateLimitWithinBudget(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 5, Window: time.Minute})(okHandler())

	for i := 0; i < 5; i++ {
		w := doRequest(handler, "192.0.2.10:1111", nil)
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimitExceeded(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 2, Window: time.Minute})(okHandler())

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, doRequest(handler, "192.0.2.10:1111", nil).Code)
	}

	w := doRequest(handler, "192.0.2.10:2222", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "rate limit exceeded", body["message"])
}

func TestRateLimitIsolatesClients(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(handler, "192.0.2.10:1111", nil).Code)
	assert.Equal(t, http.StatusOK, doRequest(handler, "192.0.2.20:1111", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, "192.0.2.10:3333", nil).Code)
}

func TestRateLimitWindowReset(t *testing.T) {
	rl := &rateLimiter{
		cfg:     RateLimitConfig{Max: 1, Window: time.Minute},
		windows: make(map[string]*window),
	}

	now := time.Now()
	_, _, allowed := rl.allow("client", now)
	require.True(t, allowed)
	_, _, allowed = rl.allow("client", now.Add(30*time.Second))
	require.False(t, allowed)

	// A fresh window opens once the old one has elapsed.
	remaining, _, allowed := rl.allow("client", now.Add(time.Minute))
	assert.True(t, allowed)
	assert.Equal(t, 0, remaining)
}

func TestRateLimitCustomKeyFunc(t *testing.T) {
	handler := RateLimit(RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		KeyFunc: func(r *http.Request) string {
			return r.Header.Get("X-API-Key")
		},
	})(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(handler, "192.0.2.10:1", map[string]string{"X-API-Key": "key-a"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, "192.0.2.10:2", map[string]string{"X-API-Key": "key-a"}).Code)
	assert.Equal(t, http.StatusOK, doRequest(handler, "192.0.2.10:3", map[string]string{"X-API-Key": "key-b"}).Code)
}

func TestRateLimitForwardedFor(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	xff := map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}
	assert.Equal(t, http.StatusOK, doRequest(handler, "192.0.2.10:1111", xff).Code)
	// Same forwarded client behind a different proxy address shares the budget.
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, "192.0.2.99:2222", xff).Code)
}

func TestEvictStale(t *testing.T) {
	rl := &rateLimiter{
		cfg:     RateLimitConfig{Max: 1, Window: time.Minute},
		windows: make(map[string]*window),
	}

	now := time.Now()
	rl.allow("old", now.Add(-3*time.Minute))
	rl.allow("fresh", now)

	rl.evictStale(now)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.windows, "old")
	assert.Contains(t, rl.windows, "fresh")
}
