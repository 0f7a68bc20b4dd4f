package api

import (
	"errors"
	"fmt"
)

// Kind classifies API failures
type Kind int

const (
	// KindTransport covers network failures, timeouts and unparseable bodies
	KindTransport Kind = iota + 1
	// KindRejected means the backend answered with success false or absent
	KindRejected
	// KindUnauthenticated means the backend refused the session (HTTP 401)
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRejected:
		return "rejected"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned by every Client call that fails
type Error struct {
	Kind      Kind
	Status    int    // HTTP status, 0 when no response was received
	Message   string // backend-supplied message or a generic one
	RequestID string
	Err       error // underlying transport or decode error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s (%s, HTTP %d)", msg, e.Kind, e.Status)
	}
	return fmt.Sprintf("%s (%s)", msg, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
