package quaddle

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes an Error for retry and presentation decisions.
type ErrorKind int

const (
	// KindUnknown is an uncategorized failure.
	KindUnknown ErrorKind = iota

	// KindTransport is a network-level failure: refused, reset, timed out.
	// The failed call may be retried by the caller; the SDK never retries
	// it on its own outside the configured gateway reconnect policy.
	KindTransport

	// KindProtocol is a malformed frame or an unexpected response schema.
	// Not retryable for the offending exchange.
	KindProtocol

	// KindAuth is invalid credentials or a rejected/expired token.
	// Terminal for the attempt, never silently retried.
	KindAuth

	// KindValidation is invalid caller input, rejected before any network
	// activity.
	KindValidation

	// KindClosed marks calls against a gateway whose event sequence has
	// already terminated.
	KindClosed
)

// String returns the string representation of an ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Error is the structured error produced everywhere in the SDK.
type Error struct {
	Kind    ErrorKind
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is matches errors of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewError creates an Error with the given kind and message.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError wraps an existing error with a kind and context message.
func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Wrapped: err}
}

func isKind(err error, kind ErrorKind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// IsTransport reports whether err is a network-level failure.
func IsTransport(err error) bool { return isKind(err, KindTransport) }

// IsProtocol reports whether err is a schema or framing failure.
func IsProtocol(err error) bool { return isKind(err, KindProtocol) }

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool { return isKind(err, KindAuth) }

// IsValidation reports whether err is a rejected-input failure.
func IsValidation(err error) bool { return isKind(err, KindValidation) }

// IsClosed reports whether err came from an already-terminated gateway.
func IsClosed(err error) bool { return isKind(err, KindClosed) }
