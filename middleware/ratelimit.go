package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps a token bucket per client IP
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	requests int
	window   time.Duration
}

// NewRateLimiter allows requests per window for every IP, with bursts up to requests
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		requests: requests,
		window:   window,
	}
}

// GetLimiter returns the limiter for the given IP
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		ratePerSecond := float64(rl.requests) / rl.window.Seconds()
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), rl.requests)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.GetLimiter(ClientIP(r)).Allow() {
				writeError(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CleanupOldLimiters drops limiters idle for longer than the window until ctx is done
func (rl *RateLimiter) CleanupOldLimiters(ctx context.Context) {
	go sweepEvery(ctx, time.Minute, func(now time.Time) {
		rl.mu.Lock()
		defer rl.mu.Unlock()
		for ip, v := range rl.visitors {
			if now.Sub(v.lastSeen) > rl.window {
				delete(rl.visitors, ip)
			}
		}
	})
}

type loginWindow struct {
	start    time.Time
	attempts int
}

// LoginLimiter is a fixed-window counter of login attempts per client IP. Every attempt counts;
// a successful login clears the counter for that IP.
type LoginLimiter struct {
	mu          sync.Mutex
	windows     map[string]*loginWindow
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

func NewLoginLimiter(maxAttempts int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		windows:     make(map[string]*loginWindow),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// Allow records an attempt and reports whether it is within the limit. When it is not, the
// second value is the time left until the window resets.
func (l *LoginLimiter) Allow(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[ip]
	if !ok || now.Sub(w.start) >= l.window {
		w = &loginWindow{start: now}
		l.windows[ip] = w
	}
	w.attempts++
	if w.attempts > l.maxAttempts {
		return false, w.start.Add(l.window).Sub(now)
	}
	return true, 0
}

// Reset forgets the attempts of ip.
func (l *LoginLimiter) Reset(ip string) {
	l.mu.Lock()
	delete(l.windows, ip)
	l.mu.Unlock()
}

// Middleware rejects attempts over the limit with 429 and resets the counter after a 2xx response.
func (l *LoginLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		ok, retryAfter := l.Allow(ip)
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
			writeError(w, "Too many login attempts. Please try again later.", http.StatusTooManyRequests)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if rec.status >= 200 && rec.status < 300 {
			l.Reset(ip)
		}
	})
}

// CleanupExpired drops finished windows until ctx is done.
func (l *LoginLimiter) CleanupExpired(ctx context.Context) {
	go sweepEvery(ctx, time.Minute, func(time.Time) { l.sweep() })
}

func (l *LoginLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for ip, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, ip)
		}
	}
}

func sweepEvery(ctx context.Context, interval time.Duration, fn func(now time.Time)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			fn(now)
		}
	}
}
