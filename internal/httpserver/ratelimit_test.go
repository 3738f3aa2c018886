package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/nutri-coach/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remoteAddr, xff string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/meal-plans/generate", nil)
	req.RemoteAddr = remoteAddr
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRateLimit_SecondRequestReturns429(t *testing.T) {
	h := RateLimitMiddleware(&config.Config{RateLimitRPS: 1, RateLimitBurst: 1}, okHandler())

	require.Equal(t, http.StatusOK, hit(h, "1.2.3.4:12345", "").Code)

	rr := hit(h, "1.2.3.4:12345", "")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "rate_limited", body.Error.Code)
}

func TestRateLimit_DisabledWhenZero(t *testing.T) {
	h := RateLimitMiddleware(&config.Config{}, okHandler())
	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, hit(h, "1.2.3.4:12345", "").Code, "request %d", i)
	}
}

func TestRateLimit_DifferentIPsIndependent(t *testing.T) {
	h := RateLimitMiddleware(&config.Config{RateLimitRPS: 1, RateLimitBurst: 1}, okHandler())

	assert.Equal(t, http.StatusOK, hit(h, "1.2.3.4:1", "").Code)
	assert.Equal(t, http.StatusOK, hit(h, "5.6.7.8:1", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "1.2.3.4:1", "").Code)
}

func TestRateLimit_ForwardedForKeysBucket(t *testing.T) {
	h := RateLimitMiddleware(&config.Config{RateLimitRPS: 1, RateLimitBurst: 1}, okHandler())

	// Same proxy, different clients.
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:80", "203.0.113.7, 10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:80", "198.51.100.2").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:80", "203.0.113.7").Code)
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		remote, xff, want string
	}{
		{"1.2.3.4:5678", "", "1.2.3.4"},
		{"1.2.3.4", "", "1.2.3.4"},
		{"1.2.3.4:5678", " 9.9.9.9 , 1.1.1.1", "9.9.9.9"},
		{"1.2.3.4:5678", ",", "1.2.3.4"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if tt.xff != "" {
			req.Header.Set("X-Forwarded-For", tt.xff)
		}
		assert.Equal(t, tt.want, extractIP(req), "remote=%q xff=%q", tt.remote, tt.xff)
	}
}

func TestRateLimiterStore_SweepsIdleClients(t *testing.T) {
	store := newRateLimiterStore(1, 1)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.True(t, store.allow("1.1.1.1"))
	require.False(t, store.allow("1.1.1.1"))

	now = now.Add(limiterIdleTTL + time.Minute)
	require.True(t, store.allow("2.2.2.2"))

	store.mu.Lock()
	_, stale := store.limiters["1.1.1.1"]
	store.mu.Unlock()
	assert.False(t, stale)
}
