package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const visitorIdleTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitors holds one token bucket per client address.
type visitors struct {
	mu    sync.Mutex
	rps   rate.Limit
	burst int
	items map[string]*visitor
}

func newVisitors(rps float64, burst int) *visitors {
	if rps <= 0 {
		rps = 20
	}
	if burst <= 0 {
		burst = 40
	}
	return &visitors{rps: rate.Limit(rps), burst: burst, items: make(map[string]*visitor)}
}

func (v *visitors) allow(key string, now time.Time) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	item, ok := v.items[key]
	if !ok {
		item = &visitor{limiter: rate.NewLimiter(v.rps, v.burst)}
		v.items[key] = item
	}
	item.lastSeen = now
	return item.limiter.AllowN(now, 1)
}

// sweep forgets clients idle for longer than visitorIdleTTL.
func (v *visitors) sweep(now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for key, item := range v.items {
		if now.Sub(item.lastSeen) > visitorIdleTTL {
			delete(v.items, key)
		}
	}
}

// RateLimit throttles each client address. The sweeper stops with ctx.
func RateLimit(ctx context.Context, rps float64, burst int) func(http.Handler) http.Handler {
	clients := newVisitors(rps, burst)

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				clients.sweep(now)
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !clients.allow(clientIP(r.RemoteAddr), time.Now()) {
				w.Header().Set("Retry-After", "1")
				WriteError(w, r, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil || host == "" {
		return remoteAddr
	}
	return host
}
