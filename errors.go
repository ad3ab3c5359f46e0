package jsondelta

import (
	"errors"
	"fmt"
)

// ErrorKind classifies patch failures.
type ErrorKind string

const (
	PathNotFound         ErrorKind = "path_not_found"
	KeyConflict          ErrorKind = "key_conflict"
	IndexOutOfBounds     ErrorKind = "index_out_of_bounds"
	TestFailed           ErrorKind = "test_failed"
	UnsupportedOperation ErrorKind = "unsupported_operation"
	MissingFromPath      ErrorKind = "missing_from_path"
	InvalidPointer       ErrorKind = "invalid_pointer"
)

// Sentinels for errors.Is. Only the kind is compared.
var (
	ErrPathNotFound         = &Error{Kind: PathNotFound}
	ErrKeyConflict          = &Error{Kind: KeyConflict}
	ErrIndexOutOfBounds     = &Error{Kind: IndexOutOfBounds}
	ErrTestFailed           = &Error{Kind: TestFailed}
	ErrUnsupportedOperation = &Error{Kind: UnsupportedOperation}
	ErrMissingFromPath      = &Error{Kind: MissingFromPath}
	ErrInvalidPointer       = &Error{Kind: InvalidPointer}
)

// Error is a failure of a single patch operation.
type Error struct {
	Kind    ErrorKind
	Op      Op
	Index   int
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("patch operation %s failed: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// IsKind reports whether err carries a patch error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *Error
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Kind == kind
}

func newError(kind ErrorKind, path string, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Index: -1, Message: fmt.Sprintf(format, args...)}
}
