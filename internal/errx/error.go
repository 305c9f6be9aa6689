// Package errx provides the coded error model used across the simulation.
// Every failure in a turn is either an invariant violation or a content error;
// both abort the acting country's turn and carry their context as data.
package errx

import (
	"errors"
	"fmt"
	"runtime"
)

// Code is the stable identifier of an error class.
type Code string

const (
	// CodeInvariant marks broken simulation invariants (negative storage,
	// non-storable input above output, no starvation candidate, bad category).
	CodeInvariant Code = "INVARIANT_VIOLATION"
	// CodeContent marks unresolved references in loaded game content.
	CodeContent Code = "CONTENT_ERROR"
	// CodeNotFound marks lookups of unknown entities by ID.
	CodeNotFound Code = "NOT_FOUND"
)

// Sentinels. Derive new values with WithData/WithCause; errors.Is matches on code.
var (
	ErrInvariant = New(CodeInvariant, "invariant violation")
	ErrContent   = New(CodeContent, "content error")
	ErrNotFound  = New(CodeNotFound, "not found")
)

// Error carries a code, a message, immutable context data, a cause chain and
// the call stack captured where the error was first wrapped.
type Error struct {
	code  Code
	msg   string
	data  map[string]any
	cause error
	stack []uintptr
}

// New creates an error without cause or stack.
func New(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

// Invariant is shorthand for ErrInvariant with a specific message.
func Invariant(format string, args ...any) *Error {
	return New(CodeInvariant, fmt.Sprintf(format, args...))
}

// Content is shorthand for ErrContent with a specific message.
func Content(format string, args ...any) *Error {
	return New(CodeContent, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.msg == "" {
		if e.cause == nil {
			return string(e.code)
		}
		return fmt.Sprintf("%s: %v", e.code, e.cause)
	}
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", e.code, e.msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.code, e.msg, e.cause)
}

// Unwrap exposes the cause chain to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is compares codes only; message, data and cause are ignored.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return e.code == t.code
}

func (e *Error) Code() Code {
	if e == nil {
		return ""
	}
	return e.code
}

func (e *Error) CodeText() string {
	return string(e.Code())
}

func (e *Error) Msg() string {
	if e == nil {
		return ""
	}
	return e.msg
}

// Data returns a copy of the context data.
func (e *Error) Data() map[string]any {
	if e == nil || e.data == nil {
		return nil
	}
	return cloneAnyMap(e.data)
}

// Stack returns the frames captured at the first wrap.
func (e *Error) Stack() []uintptr {
	if e == nil || len(e.stack) == 0 {
		return nil
	}
	out := make([]uintptr, len(e.stack))
	copy(out, e.stack)
	return out
}

func (e *Error) WithData(key string, value any) *Error {
	next := e.clone()
	if next.data == nil {
		next.data = make(map[string]any, 1)
	}
	next.data[key] = value
	return next
}

func (e *Error) WithCause(cause error) *Error {
	next := e.clone()
	next.cause = cause
	// Capture once; a stack further down the chain wins.
	if cause != nil && len(next.stack) == 0 && !hasStackInChain(cause) {
		next.stack = captureStack(3)
	}
	return next
}

func (e *Error) clone() *Error {
	return &Error{
		code:  e.code,
		msg:   e.msg,
		data:  cloneAnyMap(e.data),
		cause: e.cause,
		stack: cloneStack(e.stack),
	}
}

// Wrap annotates err with an operation name and key/value context, keeping the
// code of the innermost *Error (CodeInvariant when err carries none).
// Returns nil for a nil err.
func Wrap(err error, op string, kv ...any) error {
	if err == nil {
		return nil
	}
	code := CodeInvariant
	var inner *Error
	if errors.As(err, &inner) {
		code = inner.code
	}
	out := New(code, op).WithCause(err)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		out = out.WithData(key, kv[i+1])
	}
	return out
}

func cloneAnyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneStack(in []uintptr) []uintptr {
	if len(in) == 0 {
		return nil
	}
	out := make([]uintptr, len(in))
	copy(out, in)
	return out
}

func captureStack(skip int) []uintptr {
	const maxDepth = 64
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(skip, pcs)
	if n <= 0 {
		return nil
	}
	return pcs[:n]
}

func hasStackInChain(err error) bool {
	const maxDepth = 32
	for i := 0; i < maxDepth && err != nil; i++ {
		if sp, ok := err.(interface{ Stack() []uintptr }); ok && len(sp.Stack()) != 0 {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}
