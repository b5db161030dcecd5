package httpx

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles inbound requests per client address.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rate     rate.Limit
	burst    int
	idle     time.Duration

	trustForwarded bool
}

// NewRateLimiter starts a limiter whose idle-client sweep stops with ctx.
// Clients are keyed by peer address unless trustForwarded is set, in which case
// the first X-Forwarded-For entry is used. Only enable that behind a proxy
// that overwrites the header.
func NewRateLimiter(ctx context.Context, rps float64, burst int, trustForwarded bool) *RateLimiter {
	rl := &RateLimiter{
		limiters:       make(map[string]*clientLimiter),
		rate:           rate.Limit(rps),
		burst:          burst,
		idle:           5 * time.Minute,
		trustForwarded: trustForwarded,
	}

	go rl.sweep(ctx)
	return rl
}

func (rl *RateLimiter) sweep(ctx context.Context) {
	ticker := time.NewTicker(rl.idle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			for key, cl := range rl.limiters {
				if time.Since(cl.lastSeen) > rl.idle {
					delete(rl.limiters, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiterFor(clientKey(r, rl.trustForwarded)).Allow() {
			JSONError(w, r, http.StatusTooManyRequests, CodeRateLimited, "Too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request, trustForwarded bool) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); trustForwarded && forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
