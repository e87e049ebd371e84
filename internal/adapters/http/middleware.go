package http

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/samirrijal/zimroute/internal/core/domain"
	"github.com/samirrijal/zimroute/internal/core/usecases"
)

var rateLimitMessages = map[domain.RateTier]string{
	domain.TierLocal:  "Rate limit exceeded for this region. Please try again later.",
	domain.TierGlobal: "Too many requests. Please try again later.",
}

// ClientIP is the first X-Forwarded-For entry, else the remote address.
func ClientIP(c *fiber.Ctx) string {
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return c.IP()
}

// SecurityHeadersMiddleware sets transport security headers on every response.
func SecurityHeadersMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
		c.Set(fiber.HeaderXFrameOptions, "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	}
}

// RateLimitMiddleware admits requests per client IP using the tiered limiter.
// A nil limiter admits everything.
func RateLimitMiddleware(limiter *usecases.RateLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}

		ip := ClientIP(c)
		d := limiter.Admit(c.UserContext(), ip)

		c.Set("X-RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
		remaining := d.Limit - d.Count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if d.Allowed {
			return c.Next()
		}

		LoggerFromCtx(c.UserContext()).Warn("rate limit exceeded",
			slog.String("ip", ip), slog.String("tier", string(d.Tier)))
		secs := int(math.Ceil(d.RetryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
		return errTooManyRequests(c, rateLimitMessages[d.Tier])
	}
}
