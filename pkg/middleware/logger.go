package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"vipauto/pkg/metrics"
)

// RequestLogger пишет в zap каждый HTTP-запрос и его длительность в метрики.
// Путь берётся из шаблона маршрута, чтобы не раздувать метки.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)

			status := c.Response().Status
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			metrics.HTTPRequestDuration.
				WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).
				Observe(elapsed.Seconds())

			logger.Info("HTTP запрос",
				zap.String("method", c.Request().Method),
				zap.String("path", path),
				zap.Int("status", status),
				zap.Duration("latency", elapsed),
				zap.String("remote_ip", c.RealIP()),
			)
			return nil
		}
	}
}
