package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolve(t *testing.T, trusted []string, remote string, headers map[string]string) string {
	t.Helper()
	var got string
	h := ClientIP(trusted)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = clientIP(r)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remote
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestClientIP_UntrustedPeerIgnoresHeaders(t *testing.T) {
	got := resolve(t, nil, "203.0.113.7:5555", map[string]string{
		"X-Forwarded-For": "1.2.3.4",
		"X-Real-Ip":       "5.6.7.8",
	})
	assert.Equal(t, "203.0.113.7", got)

	got = resolve(t, []string{"10.0.0.0/8"}, "203.0.113.7:5555", map[string]string{"X-Forwarded-For": "1.2.3.4"})
	assert.Equal(t, "203.0.113.7", got)
}

func TestClientIP_TrustedProxyUsesRightmostUntrustedHop(t *testing.T) {
	got := resolve(t, []string{"10.0.0.0/8"}, "10.0.0.5:443", map[string]string{
		"X-Forwarded-For": "6.6.6.6, 1.2.3.4, 10.0.0.9",
	})
	assert.Equal(t, "1.2.3.4", got, "a client-supplied leftmost hop is not trusted")
}

func TestClientIP_TrustedProxyBareIPAndRealIPFallback(t *testing.T) {
	got := resolve(t, []string{"192.168.1.10"}, "192.168.1.10:443", map[string]string{"X-Real-Ip": "9.10.11.12"})
	assert.Equal(t, "9.10.11.12", got)

	got = resolve(t, []string{"192.168.1.10"}, "192.168.1.11:443", map[string]string{"X-Real-Ip": "9.10.11.12"})
	assert.Equal(t, "192.168.1.11", got)
}

func TestClientIP_WithoutMiddlewareFallsBackToSocket(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:54321"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")
	assert.Equal(t, "192.168.1.1", clientIP(req))
}

func hit(h http.Handler, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func TestRateLimit_Memory429AfterBudget(t *testing.T) {
	l := NewMemoryLimiter(3, 15*time.Minute)
	defer l.Close()
	h := RateLimit(l)(http.HandlerFunc(okHandler))

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, hit(h, "10.0.0.1"))
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2"), "budgets are per IP")
}

func TestRateLimit_RedisFixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	h := RateLimit(NewRedisLimiter(client, 2, time.Minute))(http.HandlerFunc(okHandler))
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1"))

	assert.True(t, mr.Exists("ratelimit:10.0.0.1"))
	assert.Greater(t, mr.TTL("ratelimit:10.0.0.1"), time.Duration(0))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1"), "new window")
}

func TestMemoryLimiter_ExactBudgetPerWindow(t *testing.T) {
	l := NewMemoryLimiter(10, 500*time.Millisecond)
	defer l.Close()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	allowed := 0
	for elapsed := time.Duration(0); elapsed < 500*time.Millisecond; elapsed += 5 * time.Millisecond {
		ok, err := l.Allow(context.Background(), "10.0.0.1")
		require.NoError(t, err)
		if ok {
			allowed++
		}
		now = now.Add(5 * time.Millisecond)
	}
	assert.Equal(t, 10, allowed)

	ok, _ := l.Allow(context.Background(), "10.0.0.1")
	assert.True(t, ok, "new window")
}

func TestMemoryLimiter_SweepDropsElapsedWindows(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	defer l.Close()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	_, _ = l.Allow(context.Background(), "a")
	now = now.Add(30 * time.Second)
	_, _ = l.Allow(context.Background(), "b")
	now = now.Add(31 * time.Second)
	l.sweep()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.windows, "a")
	assert.Contains(t, l.windows, "b")
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	h := RateLimit(brokenLimiter{})(http.HandlerFunc(okHandler))
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1"))
}
