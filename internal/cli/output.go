package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/roach88/multivault/internal/fault"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // command completed
	ExitFailure      = 1 // scenario failure or an engine rejection
	ExitCommandError = 2 // bad arguments, unreadable files, ledger errors
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

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors that carry no
// ExitError exit with ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as text or as a JSON envelope.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; nil means Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string      `json:"status"` // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
}

// CLIError reports a failed command. Engine rejections carry the fault kind
// and code; command errors use an E_ code and no kind.
type CLIError struct {
	Code    string            `json:"code"`
	Kind    string            `json:"kind,omitempty"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Success writes data. Text output prints data with fmt.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error writes a command error.
func (f *OutputFormatter) Error(code, message string, details map[string]string) error {
	return f.report(&CLIError{Code: code, Message: message, Details: details})
}

func (f *OutputFormatter) report(e *CLIError) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "error", Error: e})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", e.Code, e.Message)
	if !f.Verbose || len(e.Details) == 0 {
		return nil
	}
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(f.Writer, "  %s: %s\n", k, e.Details[k])
	}
	return nil
}

// VerboseLog writes a diagnostic line when --verbose is set. Diagnostics go
// to ErrWriter so they never interleave with JSON on Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.diag(), format+"\n", args...)
}

func (f *OutputFormatter) diag() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Fail reports err and returns the ExitError the command exits with. A fault
// anywhere in err's chain is reported with its own code and exits with
// ExitFailure. Anything else is a command error.
func (f *OutputFormatter) Fail(message string, err error) error {
	e := &CLIError{Code: "E_COMMAND", Message: fmt.Sprintf("%s: %v", message, err)}
	exit := ExitCommandError
	if fe, ok := fault.As(err); ok {
		e = &CLIError{Code: string(fe.Code), Kind: string(fe.Kind), Message: fe.Message, Details: fe.Details}
		exit = ExitFailure
	}
	if outErr := f.report(e); outErr != nil {
		return outErr
	}
	return WrapExitError(exit, message, err)
}
