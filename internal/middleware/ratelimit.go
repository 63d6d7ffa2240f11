package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimitMiddleware limits requests per client IP over a sliding window
type RateLimitMiddleware struct {
	maxRequests int
	window      time.Duration
	trustProxy  bool
	requests    map[string][]time.Time // IP -> request times
	lastSweep   time.Time
	mu          sync.Mutex
	now         func() time.Time
}

// NewRateLimitMiddleware creates a new rate limiting middleware. With
// trustProxy set the client IP is taken from X-Forwarded-For or X-Real-IP;
// otherwise only the connection's remote address counts.
func NewRateLimitMiddleware(maxRequests int, window time.Duration, trustProxy bool) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		maxRequests: maxRequests,
		window:      window,
		trustProxy:  trustProxy,
		requests:    make(map[string][]time.Time),
		now:         time.Now,
	}
}

// RateLimit rejects a request with 429 once its client has used up the
// window. A limit of zero lets everything through.
func (m *RateLimitMiddleware) RateLimit(next http.Handler) http.Handler {
	if m.maxRequests <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.allow(getClientIP(r, m.trustProxy)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"message":"Rate limit exceeded"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) allow(clientIP string) bool {
	now := m.now()
	windowStart := now.Add(-m.window)

	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastSweep) >= m.window {
		m.sweep(windowStart)
		m.lastSweep = now
	}

	// Clean old requests outside the window
	valid := m.requests[clientIP][:0]
	for _, ts := range m.requests[clientIP] {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}
	if len(valid) >= m.maxRequests {
		m.requests[clientIP] = valid
		return false
	}
	m.requests[clientIP] = append(valid, now)
	return true
}

// sweep forgets clients with no request inside the window. Times are
// appended in order, so the last one is the newest.
func (m *RateLimitMiddleware) sweep(windowStart time.Time) {
	for ip, times := range m.requests {
		if len(times) == 0 || !times[len(times)-1].After(windowStart) {
			delete(m.requests, ip)
		}
	}
}

// getClientIP extracts the client IP from the request. Forwarded headers
// are honoured only behind a trusted proxy.
func getClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
			return strings.TrimSpace(strings.Split(ip, ",")[0])
		}
		if ip := r.Header.Get("X-Real-IP"); ip != "" {
			return ip
		}
	}

	// Fall back to remote address
	ip := r.RemoteAddr
	if colonIndex := strings.LastIndex(ip, ":"); colonIndex != -1 {
		ip = ip[:colonIndex]
	}
	return ip
}
