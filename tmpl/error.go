package tmpl

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrInvalidDelimiter  = NewError("invalid delimiter")
	ErrInvalidClassifier = NewError("invalid classifier")
	ErrUnterminatedTag   = NewError("unterminated tag")
	ErrSyntax            = NewError("syntax error")
	ErrUnbalanced        = NewError("unbalanced block")
	ErrMisplaced         = NewError("misplaced statement")
	ErrExprCompile       = NewError("expression compilation failed")
	ErrExprEvaluate      = NewError("expression evaluation failed")
	ErrUndefined         = NewError("undefined identifier")
	ErrAssign            = NewError("invalid assignment")
	ErrIterate           = NewError("value is not iterable")
	ErrContext           = NewError("unsupported data context")
	ErrCanceled          = NewError("render canceled")
)

// Error represents a template error with an optional source position,
// the offending fragment, and structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg      string
	err      error
	fragment string
	attrs    []slog.Attr
	pos      Position
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
//
// The message has the form "<line>:<col>: <msg> (<fragment>): <cause>",
// omitting each part that is unset.
func (e *Error) Error() string {
	var b strings.Builder

	if e.pos.Line > 0 {
		b.WriteString(e.pos.String())
		b.WriteString(": ")
	}

	b.WriteString(e.msg)

	if e.fragment != "" {
		if e.msg != "" {
			b.WriteByte(' ')
		}

		b.WriteString("(" + strconv.Quote(e.fragment) + ")")
	}

	if e.err != nil {
		if b.Len() > 0 {
			b.WriteString(": ")
		}

		b.WriteString(e.err.Error())
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an *Error with the same message, so that
// errors derived from a sentinel via Wrap, With, or At still match it.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.msg == "" {
		return false
	}

	return e.msg == t.msg
}

// Position returns the template position the error refers to, if any.
func (e *Error) Position() Position { return e.pos }

// Fragment returns the template fragment the error refers to, if any.
func (e *Error) Fragment() string { return e.fragment }

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+4)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.pos.Line > 0 {
		attrs = append(attrs,
			slog.Int("line", e.pos.Line),
			slog.Int("column", e.pos.Column),
		)
	}

	if e.fragment != "" {
		attrs = append(attrs, slog.String("fragment", e.fragment))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.err = err

	return &c
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := *e
	c.attrs = make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(c.attrs, e.attrs)
	copy(c.attrs[len(e.attrs):], attrs)

	return &c
}

// At returns a copy of the error located at the given template position
// and fragment.
func (e *Error) At(pos Position, fragment string) *Error {
	c := *e
	c.pos = pos
	c.fragment = fragment

	return &c
}
