// Package errs provides structured error types and helpers for the Lumera portal services.
package errs

import (
	"strconv"
	"strings"
)

// Code identifies an error category within the portal state layer.
type Code string

const (
	// CodeInvalid indicates invalid input provided by the caller.
	CodeInvalid Code = "invalid_request"
	// CodeNotFound indicates a missing resource or cache key.
	CodeNotFound Code = "not_found"
	// CodeNetwork indicates an upstream transport failure.
	CodeNetwork Code = "network"
	// CodeDecode indicates a malformed payload or cached blob.
	CodeDecode Code = "decode"
	// CodeStorage indicates a local persistence failure.
	CodeStorage Code = "storage"
	// CodeUnavailable indicates the upstream service is temporarily unavailable.
	CodeUnavailable Code = "unavailable"
)

// E captures structured error information produced across the portal stack.
type E struct {
	Scope   string
	Code    Code
	HTTP    int
	Message string

	cause error
}

// Option configures an error envelope.
type Option func(*E)

// New constructs an error envelope for the given scope and error code.
func New(scope string, code Code, opts ...Option) *E {
	e := &E{
		Scope:   strings.TrimSpace(scope),
		Code:    code,
		HTTP:    0,
		Message: "",
		cause:   nil,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// WithMessage attaches a human-readable message to the error.
func WithMessage(message string) Option {
	trimmed := strings.TrimSpace(message)
	return func(e *E) {
		e.Message = trimmed
	}
}

// WithHTTP records the associated HTTP status code.
func WithHTTP(status int) Option {
	return func(e *E) {
		e.HTTP = status
	}
}

// WithCause sets the underlying cause error.
func WithCause(err error) Option {
	return func(e *E) {
		e.cause = err
	}
}

func (e *E) Error() string {
	if e == nil {
		return "<nil>"
	}
	var parts []string

	scope := strings.TrimSpace(e.Scope)
	if scope == "" {
		scope = "unknown"
	}
	parts = append(parts, "scope="+scope)

	code := strings.TrimSpace(string(e.Code))
	if code == "" {
		code = "unknown"
	}
	parts = append(parts, "code="+code)

	if e.HTTP > 0 {
		parts = append(parts, "http="+strconv.Itoa(e.HTTP))
	}
	if e.Message != "" {
		parts = append(parts, "message="+strconv.Quote(e.Message))
	}
	if e.cause != nil {
		parts = append(parts, "cause="+strconv.Quote(e.cause.Error()))
	}

	return strings.Join(parts, " ")
}

func (e *E) Unwrap() error { return e.cause }

// IsCode reports whether err is an *E carrying the given code.
func IsCode(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*E); ok {
			return e.Code == code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
