package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

const (
	// maxTrackedClients bounds each limiter cache.
	maxTrackedClients = 10000

	// maxPeekedBody caps how much of a login body is read to find the email.
	maxPeekedBody = 1 << 16
)

// limiterCache is a generic rate limiter cache with double-check locking.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()

	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}

	if len(lc.limiters) >= maxTrackedClients {
		lc.evictIdle()
	}
	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// evictIdle drops limiters that have refilled to a full burst. Clients that
// are still being throttled keep their state. Caller holds mu.
func (lc *limiterCache[K]) evictIdle() {
	for key, limiter := range lc.limiters {
		if limiter.Tokens() >= float64(lc.burst) {
			delete(lc.limiters, key)
		}
	}
}

// LoginRateLimit throttles credential endpoints per client IP and per
// account. The account is the authenticated user when there is one, and the
// normalized email of the login body otherwise, so rotating addresses does not
// buy extra guesses against one account.
func LoginRateLimit(rps float64, burst int, logger *slog.Logger) func(http.Handler) http.Handler {
	if rps <= 0 {
		rps = 0.5
	}
	if burst <= 0 {
		burst = 5
	}
	byIP := newLimiterCache[string](rps, burst)
	byAccount := newLimiterCache[string](rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			account := accountKey(r)

			allowed := byIP.get(ip).Allow()
			if allowed && account != "" {
				allowed = byAccount.get(account).Allow()
			}
			if !allowed {
				logger.Warn("login rate limit exceeded", "ip", ip, "account", account)
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate_limited", "Demasiados intentos")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accountKey identifies the targeted account. The request body is restored
// for the next handler.
func accountKey(r *http.Request) string {
	if p, ok := PrincipalFrom(r.Context()); ok {
		return "user:" + p.UserID
	}
	if r.Body == nil {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekedBody))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
	if err != nil {
		return ""
	}

	var creds struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &creds) != nil {
		return ""
	}
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" {
		return ""
	}
	return "email:" + email
}

// clientIP reads RemoteAddr. Forwarded headers only reach it when the router
// runs behind a trusted proxy and applies chi's RealIP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
