package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator plugs go-playground/validator into echo.Context.Validate.
type RequestValidator struct {
	v *validator.Validate
}

// NewRequestValidator reports JSON field names instead of Go field names.
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return sf.Name
		}
		return name
	})
	return &RequestValidator{v: v}
}

// Validate implements echo.Validator.
func (rv *RequestValidator) Validate(i any) error {
	return rv.v.Struct(i)
}

var (
	fallbackOnce      sync.Once
	fallbackValidator *RequestValidator
)

func validatorFor(c echo.Context) echo.Validator {
	if v := c.Echo().Validator; v != nil {
		return v
	}
	fallbackOnce.Do(func() { fallbackValidator = NewRequestValidator() })
	return fallbackValidator
}

// BindRequest binds the body into req, fills `default` tags and validates it.
// A nil slice means the request is usable.
func BindRequest(c echo.Context, req any) []ValidationError {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validatorFor(c).Validate(req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: describe(fe),
				Params:  paramsOf(fe),
			})
		}
		return out
	}

	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	return []ValidationError{{Code: "ERR_MALFORMED", Message: msg}}
}

var ruleText = map[string]string{
	"required": "%s is required",
	"oneof":    "%s must be one of [%s]",
	"min":      "%s must be at least %s",
	"max":      "%s must be at most %s",
	"gt":       "%s must be greater than %s",
	"gte":      "%s must be %s or more",
	"lt":       "%s must be less than %s",
	"lte":      "%s must be %s or less",
}

func describe(fe validator.FieldError) string {
	tmpl, ok := ruleText[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s fails rule %q", fe.Field(), fe.Tag())
	}
	if fe.Tag() == "required" {
		return fmt.Sprintf(tmpl, fe.Field())
	}
	return fmt.Sprintf(tmpl, fe.Field(), fe.Param())
}

func paramsOf(fe validator.FieldError) map[string]any {
	switch fe.Tag() {
	case "oneof":
		return map[string]any{"options": strings.Fields(fe.Param())}
	case "min", "max", "gt", "gte", "lt", "lte":
		return map[string]any{"limit": fe.Param()}
	}
	return nil
}
