package tools

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of tool failure categories.
type ErrorKind string

const (
	KindNotFound         ErrorKind = "not_found"
	KindInvalidArguments ErrorKind = "invalid_arguments"
	KindExecutionFailed  ErrorKind = "execution_failed"
	KindApprovalRequired ErrorKind = "approval_required"
	KindCallDeferred     ErrorKind = "call_deferred"
	KindTimeout          ErrorKind = "timeout"
	KindCanceled         ErrorKind = "canceled"
	KindOther            ErrorKind = "other"
)

// Error is a structured tool failure that preserves message, kind, and
// causal context while implementing the standard error interface. Errors
// may be nested via Cause to retain diagnostics across retries.
type Error struct {
	Kind    ErrorKind
	Message string
	// Issues carries field-level validation detail when Kind is
	// KindInvalidArguments.
	Issues []FieldIssue
	Cause  *Error
}

// New constructs an Error with the given kind and message.
func New(kind ErrorKind, message string) *Error {
	if message == "" {
		message = "tool error"
	}
	return &Error{Kind: kind, Message: message}
}

// NewWithCause constructs an Error that wraps an underlying error. The
// cause is converted into an Error chain so metadata survives
// serialization while still supporting errors.Is/As through Unwrap.
func NewWithCause(kind ErrorKind, message string, cause error) *Error {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &Error{Kind: kind, Message: message, Cause: FromError(cause)}
}

// FromError converts an arbitrary error into an Error chain, defaulting to
// KindOther when err is not already a *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	return &Error{Kind: KindOther, Message: err.Error(), Cause: FromError(errors.Unwrap(err))}
}

// Errorf formats a message and returns it as an Error of the given kind.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil || e.Cause == nil {
		return nil
	}
	return e.Cause
}

// IsRetryable reports whether dispatchOne should retry the call that
// produced e, up to the tool's MaxRetries, before giving up. Argument and
// authorization failures are never retryable since retrying without
// changing the call would fail identically; transient execution failures,
// timeouts, and uncategorized errors are.
func (e *Error) IsRetryable() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindExecutionFailed, KindTimeout, KindOther:
		return true
	default:
		return false
	}
}

// FieldIssue describes a single JSON Schema validation failure for a tool
// call's arguments.
type FieldIssue struct {
	Field      string
	Constraint string
	Allowed    []string
	Pattern    string
}
