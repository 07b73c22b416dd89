package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"rentcar-be/internal/metrics"
	"rentcar-be/internal/utils"

	"golang.org/x/time/rate"
)

// Rate Limit Tiers
const (
	// Payment notifications (Strict)
	limitStrict = rate.Limit(2)
	burstStrict = 5

	// General (Default)
	limitGeneral = rate.Limit(10)
	burstGeneral = 20

	// Internal / trusted services
	limitInternal = rate.Limit(100)
	burstInternal = 200
)

const visitorTTL = 3 * time.Minute

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiter struct {
	mu          sync.Mutex
	visitors    map[string]*visitor
	strictPaths map[string]bool
	internalKey string
	rejected    *metrics.Counter
}

// NewRateLimiter starts a cleanup loop that stops with ctx. Requests to
// strictPaths share the strict tier.
func NewRateLimiter(ctx context.Context, internalKey string, strictPaths ...string) *RateLimiter {
	rl := &RateLimiter{
		visitors:    make(map[string]*visitor),
		strictPaths: make(map[string]bool, len(strictPaths)),
		internalKey: internalKey,
		rejected:    metrics.Default.Counter("http.rate_limited"),
	}
	for _, p := range strictPaths {
		rl.strictPaths[p] = true
	}

	go rl.cleanupVisitors(ctx)
	return rl
}

// getVisitor retrieves or creates a rate limiter for the given key.
func (rl *RateLimiter) getVisitor(key string, r rate.Limit, b int) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(r, b)
		rl.visitors[key] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) cleanupVisitors(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evictIdle(time.Now())
		}
	}
}

func (rl *RateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(rl.visitors, key)
		}
	}
}

// Middleware checks if the request is allowed by the rate limiter.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, burst, tier := rl.resolveRateTier(r)

		key := requestIdentity(r) + ":" + tier

		if !rl.getVisitor(key, limit, burst).Allow() {
			rl.rejected.Inc()
			utils.WriteJSONError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestIdentity prefers the authenticated user, then the device, then the IP.
func requestIdentity(r *http.Request) string {
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		return "user:" + userID
	}
	if deviceID := r.Header.Get("X-Device-ID"); deviceID != "" {
		return "device:" + deviceID
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

// resolveRateTier determines which rate limit policy applies to the request.
func (rl *RateLimiter) resolveRateTier(r *http.Request) (rate.Limit, int, string) {
	if rl.internalKey != "" && r.Header.Get("X-Service-Auth") == rl.internalKey {
		return limitInternal, burstInternal, "internal"
	}

	if rl.strictPaths[r.URL.Path] {
		return limitStrict, burstStrict, "strict"
	}

	return limitGeneral, burstGeneral, "general"
}
