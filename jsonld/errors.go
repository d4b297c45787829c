package jsonld

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure.
type Kind string

const (
	// KindBadRequest marks failures caused by the client document.
	KindBadRequest Kind = "BAD_REQUEST"
	// KindFatal marks internal failures: library errors and context fetches.
	KindFatal Kind = "FATAL"
)

var (
	// ErrBadRequest matches every BadRequest error via errors.Is.
	ErrBadRequest = errors.New("jsonld: bad request")
	// ErrFatal matches every Fatal error via errors.Is.
	ErrFatal = errors.New("jsonld: fatal")
)

// Error is the error type returned by every engine component.
type Error struct {
	Kind Kind
	Op   string // operation, e.g. "translate"
	Msg  string // client-readable message
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrBadRequest:
		return e.Kind == KindBadRequest
	case ErrFatal:
		return e.Kind == KindFatal
	}
	return false
}

func badRequest(op string, err error, format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

func fatal(op string, err error, format string, args ...any) *Error {
	return &Error{Kind: KindFatal, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or "" for nil and foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsBadRequest reports whether err was caused by the client document.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest)
}

// Message returns the client-readable message of err without the operation
// prefix.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Err != nil && e.Msg != "" {
			return e.Msg + ": " + e.Err.Error()
		}
		if e.Msg != "" {
			return e.Msg
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
