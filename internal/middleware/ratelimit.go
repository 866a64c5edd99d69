package middleware

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RateLimiter builds a fixed-window limiter backed by Redis. Each (route,
// client IP) pair gets its own counter; the counter expires with the window.
// Redis being unreachable must not take the API down, so limiter errors are
// logged and the request is allowed through.
type RateLimiter struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRateLimiter(client *redis.Client, logger *logrus.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		logger: logger,
	}
}

// Limit allows at most `limit` requests per `window` per client IP for the
// named route.
func (l *RateLimiter) Limit(route string, limit int64, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("ratelimit:%s:%s", route, clientIP(r))

			count, err := l.client.Incr(r.Context(), key).Result()
			if err != nil {
				l.logger.WithError(err).Warn("Rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			if count == 1 {
				if err := l.client.Expire(r.Context(), key, window).Err(); err != nil {
					l.logger.WithError(err).Warn("Failed to set rate limit window")
				}
			}

			if count > limit {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":{"code":"RATE_LIMITED","message":"Too many requests"}}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
