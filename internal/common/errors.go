package common

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrConfig    = errors.New("config error")
	ErrNetwork   = errors.New("network error")
	ErrTransport = errors.New("transport error")
	ErrAPI       = errors.New("explorer api error")
	ErrFormat    = errors.New("format error")
)

// APIError is returned when the explorer answers with a failure status that is
// not the empty-result case.
type APIError struct {
	Status  string
	Message string
	Excerpt string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status=%s message=%q result=%q", ErrAPI, e.Status, e.Message, e.Excerpt)
}

func (e *APIError) Is(target error) bool {
	return target == ErrAPI
}

func NewConfigError(format string, args ...interface{}) error {
	return wrapKind(ErrConfig, nil, format, args...)
}

func NewNetworkError(cause error, format string, args ...interface{}) error {
	return wrapKind(ErrNetwork, cause, format, args...)
}

func NewTransportError(cause error, format string, args ...interface{}) error {
	return wrapKind(ErrTransport, cause, format, args...)
}

func NewFormatError(format string, args ...interface{}) error {
	return wrapKind(ErrFormat, nil, format, args...)
}

func NewAPIError(status, message, excerpt string) error {
	return errors.WithStack(&APIError{Status: status, Message: message, Excerpt: excerpt})
}

func wrapKind(kind error, cause error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		return errors.WithStack(fmt.Errorf("%w: %s: %w", kind, msg, cause))
	}
	return errors.WithStack(fmt.Errorf("%w: %s", kind, msg))
}

// Truncate shortens s to at most max bytes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
