package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type window struct {
	start time.Time
	count int
}

// MemoryLimiter is a per-key fixed window: at most max requests between a
// window's first request and start+window. Same semantics as RedisLimiter,
// scoped to one process.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	max     int
	window  time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryLimiter allows max requests per window per key.
func NewMemoryLimiter(max int, windowLen time.Duration) *MemoryLimiter {
	rl := &MemoryLimiter{
		windows: make(map[string]*window),
		max:     max,
		window:  windowLen,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

func (rl *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.window {
		w = &window{start: now}
		rl.windows[key] = w
	}
	w.count++
	return w.count <= rl.max, nil
}

// Close stops the cleanup goroutine.
func (rl *MemoryLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

// cleanup drops windows that have already elapsed.
func (rl *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
		}
		rl.sweep()
	}
}

func (rl *MemoryLimiter) sweep() {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, w := range rl.windows {
		if now.Sub(w.start) >= rl.window {
			delete(rl.windows, key)
		}
	}
}

// fixedWindow increments the key and starts its expiry on first use, atomically.
var fixedWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// RedisLimiter is a fixed-window counter shared by every replica.
type RedisLimiter struct {
	client *redis.Client
	max    int64
	window time.Duration
	prefix string
}

func NewRedisLimiter(client *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, max: int64(max), window: window, prefix: "ratelimit:"}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := fixedWindow.Run(ctx, rl.client, []string{rl.prefix + key}, rl.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit window: %w", err)
	}
	return n <= rl.max, nil
}

// RateLimit enforces l per client IP (see ClientIP). Limiter failures let the
// request through and are logged at most every 10s.
func RateLimit(l Limiter) func(http.Handler) http.Handler {
	warn := &rate.Sometimes{Interval: 10 * time.Second}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), clientIP(r))
			if err != nil {
				warn.Do(func() { slog.Warn("rate limiter unavailable", "err", err) })
				ok = true
			}
			if !ok {
				writeJSONError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
