package model

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of model failure categories. Callers branch
// on Kind rather than inspecting provider-specific error strings, and
// fallback/retry policy (see the fallback package) is expressed entirely in
// terms of this taxonomy.
type ErrorKind string

const (
	KindAuth            ErrorKind = "auth"
	KindRateLimited     ErrorKind = "rate_limited"
	KindHTTP            ErrorKind = "http"
	KindTimeout         ErrorKind = "timeout"
	KindConnection      ErrorKind = "connection"
	KindNetwork         ErrorKind = "network"
	KindAPI             ErrorKind = "api"
	KindNotFound        ErrorKind = "not_found"
	KindContentFiltered ErrorKind = "content_filtered"
	KindInvalidResponse ErrorKind = "invalid_response"
	KindConfiguration   ErrorKind = "configuration"
	KindNotSupported    ErrorKind = "not_supported"
	KindOther           ErrorKind = "other"
)

// Error is the structured error type returned by every Model
// implementation. It carries enough detail for both human diagnostics and
// machine-driven retry/fallback policy, and composes with errors.Is/As via
// Unwrap.
type Error struct {
	provider   string
	operation  string
	kind       ErrorKind
	httpStatus int
	code       string
	message    string
	requestID  string
	retryable  bool
	cause      error
}

// NewError constructs a Error. It panics if provider or kind is empty:
// every Model implementation must attribute its own failures.
func NewError(provider string, kind ErrorKind, message string) *Error {
	if provider == "" {
		panic("model: NewError requires a non-empty provider")
	}
	if kind == "" {
		panic("model: NewError requires a non-empty kind")
	}
	return &Error{provider: provider, kind: kind, message: message}
}

func (e *Error) WithOperation(op string) *Error   { e.operation = op; return e }
func (e *Error) WithHTTPStatus(s int) *Error      { e.httpStatus = s; return e }
func (e *Error) WithCode(code string) *Error      { e.code = code; return e }
func (e *Error) WithRequestID(id string) *Error   { e.requestID = id; return e }
func (e *Error) WithRetryable(v bool) *Error      { e.retryable = v; return e }
func (e *Error) WithCause(err error) *Error       { e.cause = err; return e }

func (e *Error) Provider() string   { return e.provider }
func (e *Error) Operation() string  { return e.operation }
func (e *Error) Kind() ErrorKind    { return e.kind }
func (e *Error) HTTPStatus() int    { return e.httpStatus }
func (e *Error) Code() string       { return e.code }
func (e *Error) Message() string    { return e.message }
func (e *Error) RequestID() string  { return e.requestID }
func (e *Error) Retryable() bool    { return e.retryable }

func (e *Error) Error() string {
	if e.operation != "" {
		return fmt.Sprintf("model: %s %s: %s (%s)", e.provider, e.operation, e.message, e.kind)
	}
	return fmt.Sprintf("model: %s: %s (%s)", e.provider, e.message, e.kind)
}

func (e *Error) Unwrap() error { return e.cause }

// AsModelError extracts a *Error from err's chain, if present.
func AsModelError(err error) (*Error, bool) {
	var me *Error
	if errors.As(err, &me) {
		return me, true
	}
	return nil, false
}

// ErrStreamingUnsupported indicates a Model implementation does not support
// RequestStream.
var ErrStreamingUnsupported = errors.New("model: streaming not supported")
