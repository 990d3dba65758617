// Package apperr carries a machine-readable code alongside an error so callers
// can decide how to react without matching on message text.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	NotFound           = "NOT_FOUND"
	InvalidInput       = "INVALID_INPUT"
	Conflict           = "CONFLICT"
	Forbidden          = "FORBIDDEN"
	PersistenceFailure = "PERSISTENCE_FAILURE"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func New(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Newf builds an AppError without a cause.
func Newf(code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Code returns the code of the first AppError in err's chain, or "".
func Code(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return err != nil && Code(err) == code
}

// HTTPStatus maps err to the response status a handler should use.
func HTTPStatus(err error) int {
	switch Code(err) {
	case NotFound:
		return http.StatusNotFound
	case InvalidInput:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-facing message of err.
func Message(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}
