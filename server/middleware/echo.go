package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	apierrors "github.com/hrygo/rift/server/internal/errors"
)

// RateLimit rejects requests over the per-IP budget with 429.
func RateLimit(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if !rl.Allow(ip) {
				slog.Warn("rate limit exceeded", "ip", ip, "path", c.Path())
				apiErr := apierrors.RateLimitExceeded("too many requests")
				return c.JSON(apiErr.HTTPStatus(), map[string]string{
					"code":    string(apiErr.Code),
					"message": apiErr.Message,
				})
			}
			return next(c)
		}
	}
}
