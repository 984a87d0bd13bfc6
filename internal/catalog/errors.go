package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies catalog failures.
type ErrorKind string

const (
	KindAuth      ErrorKind = "auth"
	KindForbidden ErrorKind = "forbidden"
	KindNotFound  ErrorKind = "not_found"
	KindServer    ErrorKind = "server"
	KindTransport ErrorKind = "transport"
	// KindRejected covers any other unexpected status, mostly 4xx.
	KindRejected ErrorKind = "rejected"
)

// Error is returned by HTTPClient for every failed operation.
type Error struct {
	Op      string
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindAuth:
		return fmt.Sprintf("%s: authentication failed - check IMMICH_API_KEY", e.Op)
	case KindForbidden:
		return fmt.Sprintf("%s: forbidden - API key lacks required permissions", e.Op)
	case KindTransport:
		return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s failed: HTTP %d - %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s failed: HTTP %d", e.Op, e.Status)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err is an authentication or authorization failure,
// which no later request can recover from.
func IsFatal(err error) bool {
	var ce *Error
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Kind == KindAuth || ce.Kind == KindForbidden
}

// IsNotFound reports whether err is a 404 from the catalog.
func IsNotFound(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == KindNotFound
}

// kindForStatus maps an unexpected HTTP status to an ErrorKind.
func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests || status >= 500:
		return KindServer
	default:
		return KindRejected
	}
}

// retryable reports whether a status should be retried.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
