package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/neomestre/neomestre/internal/unimestre"
)

// Exit codes.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The portal or the local data said no (rejected login, unknown account, ...)
	ExitCommandError = 2 // Bad usage or a local failure (flags, database, config)
)

// ExitError carries an exit code and a message for the user.
type ExitError struct {
	Code    int
	Kind    string // machine-readable error code for json/yaml output
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

// failure is a domain failure with a user-facing message.
func failure(kind, message string) *ExitError {
	return &ExitError{Code: ExitFailure, Kind: kind, Message: message}
}

var errNotConfigured = failure("not_configured", "nenhuma conta cadastrada. use `neomestre login` primeiro.")

// GetExitCode extracts the exit code from an error. Portal failures are
// domain failures; anything else unclassified is a command error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if unimestre.KindOf(err) != 0 {
		return ExitFailure
	}
	return ExitCommandError
}

// describe returns the machine code and user message for err.
func describe(err error) (kind, message string) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		kind = exitErr.Kind
		if kind == "" {
			kind = "command_error"
		}
		return kind, exitErr.Message
	}
	var uerr *unimestre.Error
	if errors.As(err, &uerr) {
		return uerr.Kind.String(), uerr.Message()
	}
	return "command_error", err.Error()
}

// OutputFormatter writes command results as text, JSON or YAML.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
}

// Response is the envelope for json and yaml output.
type Response struct {
	Status string         `json:"status" yaml:"status"`
	Data   any            `json:"data,omitempty" yaml:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty" yaml:"error,omitempty"`
}

// ResponseError describes a failed command.
type ResponseError struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// Success writes data. In text format, text renders it.
func (f *OutputFormatter) Success(data any, text func(w io.Writer)) error {
	switch f.Format {
	case "json", "yaml":
		return f.encode(Response{Status: "ok", Data: data})
	default:
		text(f.Writer)
		return nil
	}
}

// Error writes a failure. Text goes to ErrWriter; structured formats go to
// Writer so scripts read a single stream.
func (f *OutputFormatter) Error(err error) {
	kind, message := describe(err)
	switch f.Format {
	case "json", "yaml":
		_ = f.encode(Response{Status: "error", Error: &ResponseError{Code: kind, Message: message}})
	default:
		w := f.ErrWriter
		if w == nil {
			w = f.Writer
		}
		fmt.Fprintln(w, "erro:", message)
	}
}

func (f *OutputFormatter) encode(r Response) error {
	if f.Format == "yaml" {
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
