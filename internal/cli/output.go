package cli

import (
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the statement could not be compiled or run
	ExitCommandError = 2 // bad flags, unreadable metadata
)

// ExitError is an error carrying the exit code of the process.
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

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors that are not an
// ExitError map to ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Texter is implemented by results with a human-readable rendering.
type Texter interface {
	WriteText(w io.Writer) error
}

// OutputFormatter writes command results as JSON or text.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Response is the JSON envelope of every result.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Success writes data in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(Response{Status: "ok", Data: data})
	}
	if t, ok := data.(Texter); ok {
		return t.WriteText(f.Writer)
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Fail writes err in the configured format and returns it wrapped with code.
// In text mode the error is left to the caller to print.
func (f *OutputFormatter) Fail(code int, message string, err error) error {
	exitErr := WrapExitError(code, message, err)
	if f.Format == "json" {
		if encErr := f.encode(Response{Status: "error", Error: exitErr.Error()}); encErr != nil {
			return errors.Join(exitErr, encErr)
		}
	}
	return exitErr
}

func (f *OutputFormatter) encode(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
