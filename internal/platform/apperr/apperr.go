// Package apperr holds the error values shared by the domain services and
// their translation into HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// ValidationError lists every rule a request broke.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// Validator collects field problems while a record is checked.
type Validator struct {
	fields []string
}

// Check records msg when ok is false.
func (v *Validator) Check(ok bool, msg string) {
	if !ok {
		v.fields = append(v.fields, msg)
	}
}

// Err returns a *ValidationError when any check failed, otherwise nil.
func (v *Validator) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

// Invalid builds a single-field validation error.
func Invalid(format string, args ...interface{}) error {
	return &ValidationError{Fields: []string{fmt.Sprintf(format, args...)}}
}

// NotFound wraps ErrNotFound with the resource name, e.g. "patient not found".
func NotFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// Conflict wraps ErrConflict with the resource name.
func Conflict(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrConflict)
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// HTTP maps a service error onto the echo error returned by handlers.
// Errors that are already *echo.HTTPError pass through unchanged.
func HTTP(err error) error {
	if err == nil {
		return nil
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	switch {
	case IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}
