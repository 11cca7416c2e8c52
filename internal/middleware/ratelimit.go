package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimiter applies a token-bucket limit per client IP.
//
// The limiter reads c.RealIP(); when the service runs behind a proxy, Echo's
// IPExtractor must be configured so X-Forwarded-For spoofing cannot bypass
// the limit. See https://echo.labstack.com/docs/ip-address.
type RateLimiter struct {
	limiters sync.Map // IP address -> *limiterEntry
	logger   *slog.Logger
	config   RateLimitConfig
	ctx      context.Context
	cancel   context.CancelFunc
}

// limiterEntry wraps a rate limiter with metadata for cleanup.
// lastAccess is stored as Unix timestamp (int64) for thread-safe atomic access.
type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess atomic.Int64 // Unix timestamp in seconds
}

// NewRateLimiter creates a rate limiter with default settings and starts
// its background cleanup goroutine. Call Shutdown during graceful shutdown.
func NewRateLimiter(logger *slog.Logger) *RateLimiter {
	ctx, cancel := context.WithCancel(context.Background())

	rl := &RateLimiter{
		logger: logger,
		config: DefaultRateLimitConfig(),
		ctx:    ctx,
		cancel: cancel,
	}

	go rl.cleanupOldLimiters()

	return rl
}

// Middleware returns the rate limiting middleware. Requests over the limit
// get 429 with a Retry-After header.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			limiter := rl.getLimiter(ip)

			if !limiter.Allow() {
				rl.logger.Warn("rate limit exceeded",
					slog.String("ip", ip),
					slog.String("path", c.Path()),
					slog.String("method", c.Request().Method))

				c.Response().Header().Set("Retry-After", "1")
				c.Response().Header().Set("X-RateLimit-Limit", fmt.Sprintf("%.0f", rl.config.GlobalRate))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")

				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			c.Response().Header().Set("X-RateLimit-Limit", fmt.Sprintf("%.0f", rl.config.GlobalRate))

			return next(c)
		}
	}
}

// getLimiter returns the rate limiter for a given IP address, creating one
// on first sight.
func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	if entry, exists := rl.limiters.Load(ip); exists {
		limEntry := entry.(*limiterEntry)
		limEntry.lastAccess.Store(time.Now().Unix())
		return limEntry.limiter
	}

	limiter := rate.NewLimiter(rate.Limit(rl.config.GlobalRate), rl.config.GlobalBurst)

	entry := &limiterEntry{
		limiter: limiter,
	}
	entry.lastAccess.Store(time.Now().Unix())
	actual, _ := rl.limiters.LoadOrStore(ip, entry)
	return actual.(*limiterEntry).limiter
}

// cleanupOldLimiters periodically drops limiters idle for over an hour so
// the per-IP map cannot grow without bound.
func (rl *RateLimiter) cleanupOldLimiters() {
	interval, err := time.ParseDuration(rl.config.CleanupInterval)
	if err != nil {
		rl.logger.Error("invalid cleanup interval, using default 1h", slog.String("error", err.Error()))
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	inactivityThreshold := time.Hour

	for {
		select {
		case <-ticker.C:
			var removed int
			currentTime := time.Now().Unix()

			rl.limiters.Range(func(key, value interface{}) bool {
				entry := value.(*limiterEntry)

				lastAccess := entry.lastAccess.Load()
				if currentTime-lastAccess > int64(inactivityThreshold.Seconds()) {
					rl.limiters.Delete(key)
					removed++
				}

				return true
			})

			if removed > 0 {
				rl.logger.Info("cleaned up old rate limiters",
					slog.Int("removed", removed))
			}
		case <-rl.ctx.Done():
			rl.logger.Debug("rate limiter cleanup goroutine stopping")
			return
		}
	}
}

// Shutdown stops the background cleanup goroutine.
func (rl *RateLimiter) Shutdown() {
	if rl.cancel != nil {
		rl.cancel()
	}
}

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	// GlobalRate is requests per second per IP.
	GlobalRate float64

	// GlobalBurst is the burst size per IP.
	GlobalBurst int

	// CleanupInterval is how often to clean up old limiters.
	CleanupInterval string // e.g., "1h"
}

// DefaultRateLimitConfig returns default rate limit settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		GlobalRate:      100.0,
		GlobalBurst:     200,
		CleanupInterval: "1h",
	}
}
