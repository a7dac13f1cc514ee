package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can tell bad input, a failing
// upstream service and a well-formed request with no solution apart.
type ErrorKind int

const (
	KindInput ErrorKind = iota + 1
	KindUpstream
	KindEmptyResult
)

func (k ErrorKind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindUpstream:
		return "upstream"
	case KindEmptyResult:
		return "empty_result"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching on kind.
var (
	ErrInput       = &Error{Kind: KindInput}
	ErrUpstream    = &Error{Kind: KindUpstream}
	ErrEmptyResult = &Error{Kind: KindEmptyResult}
)

// Error is a classified domain error.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String() + " error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// InputError reports unusable caller input.
func InputError(format string, args ...any) error {
	return &Error{Kind: KindInput, Message: fmt.Sprintf(format, args...)}
}

// EmptyResultError reports a well-formed request that produced nothing usable.
func EmptyResultError(format string, args ...any) error {
	return &Error{Kind: KindEmptyResult, Message: fmt.Sprintf(format, args...)}
}

// UpstreamError wraps a transport or status failure from an external service.
// The upstream message is kept intact in the error text.
func UpstreamError(service string, err error) error {
	return &Error{Kind: KindUpstream, Message: service, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
