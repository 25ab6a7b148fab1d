package server

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"bank-chatbot/internal/common/logger"
)

// RateLimiter enforces a fixed-window per-client request cap backed by Redis,
// so the limit holds across replicas.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger logger.Logger
}

func NewRateLimiter(client *redis.Client, requestsPerMinute int, log logger.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  requestsPerMinute,
		window: time.Minute,
		logger: log.WithFields(map[string]interface{}{"component": "ratelimit"}),
	}
}

// Middleware rejects requests over the per-minute cap with 429. Redis being
// unreachable fails open: availability wins over strict limiting.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := fmt.Sprintf("ratelimit:%s:%d", clientIP(r), time.Now().Unix()/int64(rl.window.Seconds()))

		count, err := rl.client.Incr(r.Context(), key).Result()
		if err != nil {
			rl.logger.WithError(err).Warn("rate limit check failed, allowing request", nil)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			rl.client.Expire(r.Context(), key, rl.window)
		}

		if count > int64(rl.limit) {
			rl.logger.Warn("rate limit exceeded", map[string]interface{}{
				"client": clientIP(r),
				"count":  count,
			})
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.window.Seconds())))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
