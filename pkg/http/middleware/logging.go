package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	xlogger "FolioPull/pkg/logger"
)

// RequestLogging logs one line per HTTP request at debug level.
func RequestLogging(l *xlogger.Logger) echo.MiddlewareFunc {
	if l == nil {
		l = xlogger.Nop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)

			l.Debug("http request",
				xlogger.String("method", req.Method),
				xlogger.String("uri", req.RequestURI),
				xlogger.String("remote", c.RealIP()),
				xlogger.Int("status", c.Response().Status),
				xlogger.Duration("latency", time.Since(start)),
			)
			return err
		}
	}
}
