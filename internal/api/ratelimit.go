package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/echoverse/echoverse-server/internal/ratelimit"
)

// RateLimiter wraps KeyedRateLimiter for API use.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter creates a new rate limiter.
// rate: number of requests allowed per interval
// interval: time period for rate (e.g., time.Minute)
// burst: maximum burst size
func NewRateLimiter(ratePerInterval int, interval time.Duration, burst int) *RateLimiter {
	// 20 per minute = 20/60 = 0.333 rps
	rps := float64(ratePerInterval) / interval.Seconds()
	return ratelimit.New(rps, burst)
}

// rateKeyFunc picks the bucket for a request.
type rateKeyFunc func(ctx huma.Context) string

// byClientIP keys requests by caller address.
func byClientIP(ctx huma.Context) string {
	if ip := extractIP(ctx.Header("X-Forwarded-For"), ctx.Header("X-Real-IP")); ip != "" {
		return ip
	}
	return remoteHost(ctx.RemoteAddr())
}

// byUser keys requests by authenticated user, falling back to the caller address.
func byUser(ctx huma.Context) string {
	if userID := getUserID(ctx.Context()); userID != "" {
		return "user:" + userID
	}
	return "ip:" + byClientIP(ctx)
}

// rateLimit returns an operation middleware that answers 429 when the
// caller's bucket is empty.
func (s *Server) rateLimit(limiter *RateLimiter, key rateKeyFunc) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		k := key(ctx)
		if limiter.Allow(k) {
			next(ctx)
			return
		}

		s.logger.Warn("Rate limit exceeded",
			"key", k,
			"path", ctx.URL().Path,
		)
		ctx.SetHeader("Retry-After", strconv.Itoa(retryAfterSeconds(limiter)))
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "Too many requests. Please try again later.")
	}
}

// retryAfterSeconds is the time for one token to refill.
func retryAfterSeconds(limiter *RateLimiter) int {
	rps := limiter.Rate()
	if rps <= 0 {
		return 60
	}
	return max(int(math.Ceil(1/rps)), 1)
}
