package http

import (
	"errors"
	"fmt"
	"net/http"

	applogger "TickPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Envelope wraps every JSON body the API writes.
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string         `json:"code"`
	Field   string         `json:"field,omitempty"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params,omitempty"`
}

// APIError is an error a handler can return with its own status and code.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *APIError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.cause }

// Unavailable is a 503 with code ERR_UNAVAILABLE.
func Unavailable(format string, args ...any) *APIError {
	return &APIError{Status: http.StatusServiceUnavailable, Code: "ERR_UNAVAILABLE", Message: fmt.Sprintf(format, args...)}
}

// Unauthorized is a 401 with code ERR_UNAUTHORIZED.
func Unauthorized(message string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Code: "ERR_UNAUTHORIZED", Message: message}
}

// Internal hides cause from the client and keeps it for logs.
func Internal(cause error) *APIError {
	return &APIError{Status: http.StatusInternalServerError, Code: "ERR_INTERNAL", Message: "internal error", cause: cause}
}

// JSON writes data inside an Envelope carrying status.
func JSON(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Status: status, Message: http.StatusText(status), Data: data})
}

// OK writes a 200 envelope.
func OK(c echo.Context, data any) error {
	return JSON(c, http.StatusOK, data)
}

// Invalid writes a 400 envelope listing the rejected fields.
func Invalid(c echo.Context, errs []ValidationError) error {
	return JSON(c, http.StatusBadRequest, errs)
}

// Fail renders err as an envelope. Unknown errors become a bare 500.
func Fail(c echo.Context, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return JSON(c, apiErr.Status, []*APIError{apiErr})
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return JSON(c, he.Code, []*APIError{{Code: fmt.Sprintf("ERR_HTTP_%d", he.Code), Message: fmt.Sprint(he.Message)}})
	}
	return Fail(c, Internal(err))
}

// ErrorHandler renders errors that reach echo, including router 404/405, as envelopes.
func ErrorHandler(l *applogger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status >= http.StatusInternalServerError && apiErr.cause != nil {
			l.Error("http handler error", applogger.String("path", c.Path()), applogger.Error(apiErr.cause))
		}
		if werr := Fail(c, err); werr != nil {
			l.Warn("write error response", applogger.Error(werr))
		}
	}
}
