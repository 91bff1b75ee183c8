package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes classify every failure the relay can report. The HTTP layer
// maps codes to status codes per operation; the codes themselves are part of
// the caller-facing contract (the "type" field of error responses).
const (
	// CodeInput marks malformed or missing caller parameters. Never retried.
	CodeInput = "input"
	// CodeConfig marks a server-side misconfiguration, such as a missing
	// GitHub credential. The operator has to fix it.
	CodeConfig = "config"
	// CodeUpstreamAuth marks a credential rejected by GitHub (401/403,
	// including SSO authorization failures).
	CodeUpstreamAuth = "upstream_auth"
	// CodeUpstream marks any other non-2xx response from GitHub.
	CodeUpstream = "upstream"
	// CodeNotFound marks a run that could not be located: a 404 from GitHub,
	// or a dispatch whose run never became discoverable.
	CodeNotFound = "not_found"
)

type RelayError struct {
	Code    string
	Message string
	Hint    string
	Err     error
}

func (e *RelayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

// WithHint attaches a remediation hint surfaced alongside the error message.
func (e *RelayError) WithHint(hint string) *RelayError {
	e.Hint = hint
	return e
}

func New(code, message string) *RelayError {
	return &RelayError{Code: code, Message: message}
}

func Newf(code, format string, args ...interface{}) *RelayError {
	return &RelayError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, code, message string) *RelayError {
	return &RelayError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the outermost RelayError in err's chain, or
// CodeUpstream when err carries no classification.
func CodeOf(err error) string {
	var re *RelayError
	if stderrors.As(err, &re) {
		return re.Code
	}
	return CodeUpstream
}

// HintOf returns the remediation hint of the outermost RelayError in err's
// chain, if any.
func HintOf(err error) string {
	var re *RelayError
	if stderrors.As(err, &re) {
		return re.Hint
	}
	return ""
}

// IsCode reports whether err's chain contains a RelayError with the given code.
func IsCode(err error, code string) bool {
	var re *RelayError
	if stderrors.As(err, &re) {
		return re.Code == code
	}
	return false
}
