package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures.
type ErrorKind string

const (
	// KindConfiguration means a required credential or endpoint is missing.
	KindConfiguration ErrorKind = "configuration"
	// KindValidation means the caller supplied unusable input.
	KindValidation ErrorKind = "validation"
	// KindCountMismatch means an upstream batch returned the wrong number of items.
	KindCountMismatch ErrorKind = "count_mismatch"
	// KindUpstream means an external service failed or answered malformed data.
	KindUpstream ErrorKind = "upstream"
)

// Error is a structured pipeline error. Message is safe to show to callers.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (%v)", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Op == "" || t.Op == e.Op)
}

// Sentinels for errors.Is checks by kind.
var (
	ErrConfiguration = &Error{Kind: KindConfiguration, Message: "configuration error"}
	ErrValidation    = &Error{Kind: KindValidation, Message: "invalid input"}
	ErrCountMismatch = &Error{Kind: KindCountMismatch, Message: "count mismatch"}
	ErrUpstream      = &Error{Kind: KindUpstream, Message: "upstream failure"}
)

// ConfigError reports a missing or invalid setting.
func ConfigError(op, format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Message: fmt.Sprintf(format, args...)}
}

// ValidationError reports unusable caller input.
func ValidationError(op, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

// CountMismatchError reports a batch whose result count differs from its input count.
func CountMismatchError(op string, offset, expected, got int) *Error {
	return &Error{
		Kind:    KindCountMismatch,
		Op:      op,
		Message: fmt.Sprintf("count mismatch at batch starting %d: expected %d, got %d", offset, expected, got),
	}
}

// UpstreamError wraps a failure of an external service.
func UpstreamError(service string, err error) *Error {
	return &Error{Kind: KindUpstream, Op: service, Message: "request failed", Err: err}
}

// KindOf returns the kind of err, or "" when err is not a pipeline error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// PublicMessage renders err for callers. Upstream errors hide the wrapped
// cause, which may carry raw provider response bodies.
func PublicMessage(err error) string {
	var de *Error
	if errors.As(err, &de) {
		if de.Kind == KindUpstream {
			if de.Op == "" {
				return de.Message
			}
			return de.Op + ": " + de.Message
		}
		return de.Error()
	}
	return err.Error()
}
