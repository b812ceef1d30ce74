package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/crawlora/aws-platform-engineering/internal/logger"
	"github.com/crawlora/aws-platform-engineering/internal/ratelimit"
)

// RateLimitMiddleware limits requests per client IP and answers 429 once a client
// runs out of tokens.
func RateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := getClientIP(r)

			if !limiter.Allow(key) {
				log.Warn("Rate limit exceeded", "ip", key, "path", r.URL.Path)
				writeRateLimited(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimited(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(&APIError{
		Code:    CodeRateLimited,
		Message: "Too many requests. Please try again later.",
	})
}

// getClientIP prefers X-Forwarded-For (first hop), then X-Real-IP, then RemoteAddr
// without its port.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i >= 0 {
		return ip[:i]
	}
	return ip
}
