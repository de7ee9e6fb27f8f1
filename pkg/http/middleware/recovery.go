package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "TickPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover converts a handler panic into a 500 error for the error handler to render.
// It must sit inside Metrics and RequestLogging so they still observe the request.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				cause, ok := r.(error)
				if !ok {
					cause = fmt.Errorf("%v", r)
				}
				l.Error("http handler panic",
					applogger.String("route", c.Path()),
					applogger.Error(cause),
					applogger.String("stack", string(debug.Stack())),
				)
				err = echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(cause)
			}()
			return next(c)
		}
	}
}
