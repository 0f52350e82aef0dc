package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// RequestLogger логирует каждый запрос вместе с организацией и пользователем,
// если запрос прошел аутентификацию
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			latency := time.Since(start)

			logEvent := log.Info()
			if err != nil {
				logEvent = log.Error().Err(err)
			}

			logEvent = logEvent.
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Str("ip", c.RealIP()).
				Dur("latency", latency)

			// org_id и user_id кладет в контекст AuthMiddleware
			if orgID, ok := c.Get("org_id").(string); ok && orgID != "" {
				logEvent = logEvent.Str("org_id", orgID)
			}
			if userID, ok := c.Get("user_id").(string); ok && userID != "" {
				logEvent = logEvent.Str("user_id", userID)
			}

			logEvent.Msg("request")

			return err
		}
	}
}
