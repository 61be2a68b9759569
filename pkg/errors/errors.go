// Package errors defines the sentinel errors shared by the encyclopedia
// packages and maps them onto HTTP status codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrEntryNotFound  = errors.New("entry not found")
	ErrDuplicateTitle = errors.New("entry already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrStoreIO        = errors.New("entry store failure")
	ErrEmptyStore     = errors.New("entry store is empty")
	ErrInternal       = errors.New("internal error")
	ErrTimeout        = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// StoreIO wraps a storage-medium failure so callers can detect it with
// errors.Is(err, ErrStoreIO) while keeping the cause in the chain.
func StoreIO(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreIO, op, err)
}

// IsExpected reports whether err is an outcome the user can act on rather
// than a failure worth logging at error level.
func IsExpected(err error) bool {
	return errors.Is(err, ErrEntryNotFound) ||
		errors.Is(err, ErrDuplicateTitle) ||
		errors.Is(err, ErrInvalidInput)
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateTitle):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
