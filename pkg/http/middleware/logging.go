package middleware

import (
	"time"

	applogger "TickPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging writes one debug line per request once the response is final.
// Handler errors are rendered here so the logged status is the one the client saw.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			began := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			res := c.Response()
			l.Debug("http request",
				applogger.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
				applogger.String("method", c.Request().Method),
				applogger.String("path", c.Request().URL.Path),
				applogger.Int("status", res.Status),
				applogger.Int64("bytes", res.Size),
				applogger.Duration("took", time.Since(began)),
			)
			return nil
		}
	}
}
