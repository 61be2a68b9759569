package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	apperrors "github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/errors"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // missing entry, duplicate title, empty store
	ExitCommandError = 2 // bad arguments, unreadable config or store
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from err. Entry outcomes a user can
// act on exit with ExitFailure, anything else with ExitCommandError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch {
	case errors.Is(err, apperrors.ErrEntryNotFound),
		errors.Is(err, apperrors.ErrDuplicateTitle),
		errors.Is(err, apperrors.ErrEmptyStore):
		return ExitFailure
	default:
		return ExitCommandError
	}
}

// response is the JSON envelope every command prints with --format json.
type response struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *cliError `json:"error,omitempty"`
}

type cliError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Success prints data as JSON, or calls text to print it for humans.
func (f *OutputFormatter) Success(data any, text func(w io.Writer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(response{Status: "ok", Data: data})
	}
	text(f.Writer)
	return nil
}

// Error prints err in the configured format.
func (f *OutputFormatter) Error(err error) {
	if f.Format == "json" {
		json.NewEncoder(f.Writer).Encode(response{
			Status: "error",
			Error:  &cliError{Code: GetExitCode(err), Message: err.Error()},
		})
		return
	}
	fmt.Fprintf(f.Writer, "Error: %v\n", err)
}
