package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	requestsPerMinute = 60
	burstSize         = 10
)

// RateLimit is a per-client-IP token bucket. In-memory only; a multi-instance
// deployment would need this moved into Redis.
func RateLimit(next http.Handler) http.Handler {
	limiter := newTokenBucket(requestsPerMinute, burstSize)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := clientIP(r)

		if !limiter.allow(clientIP) {
			log.Warn().
				Str("client_ip", clientIP).
				Str("url", r.URL.String()).
				Msg("Rate limit exceeded")

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{
					"message": "rate limit exceeded, please try again later",
				},
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		if ip, _, found := strings.Cut(forwardedFor, ","); found {
			return strings.TrimSpace(ip)
		}
		return forwardedFor
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}

type tokenBucket struct {
	mu                sync.Mutex
	requestsPerMinute int
	burstSize         int
	clients           map[string]*clientTokens
}

type clientTokens struct {
	tokens     int
	lastRefill time.Time
}

func newTokenBucket(requestsPerMinute, burstSize int) *tokenBucket {
	return &tokenBucket{
		requestsPerMinute: requestsPerMinute,
		burstSize:         burstSize,
		clients:           make(map[string]*clientTokens),
	}
}

func (tb *tokenBucket) allow(clientIP string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()

	client, exists := tb.clients[clientIP]
	if !exists {
		client = &clientTokens{tokens: tb.burstSize, lastRefill: now}
		tb.clients[clientIP] = client
	}

	refill := int(now.Sub(client.lastRefill).Minutes() * float64(tb.requestsPerMinute))
	if refill > 0 {
		client.tokens = min(client.tokens+refill, tb.burstSize)
		client.lastRefill = now
	}

	if client.tokens > 0 {
		client.tokens--
		return true
	}
	return false
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
