// Package errors provides structured error handling for the lumen runtime.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindType indicates an invalid value or argument type.
	KindType
	// KindDelegate indicates a malformed event delegation.
	KindDelegate
	// KindLifecycle indicates a lifecycle transition that is not allowed.
	KindLifecycle
	// KindOwnership indicates a light-tree ownership violation.
	KindOwnership
	// KindHierarchy indicates an invalid host tree mutation.
	KindHierarchy
	// KindRender indicates a rendering error.
	KindRender
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindAsync indicates an asynchronous event dispatch failure.
	KindAsync
	// KindConfig indicates a configuration error.
	KindConfig
)

func (k ErrorKind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindDelegate:
		return "delegate"
	case KindLifecycle:
		return "lifecycle"
	case KindOwnership:
		return "ownership"
	case KindHierarchy:
		return "hierarchy"
	case KindRender:
		return "render"
	case KindPanic:
		return "panic"
	case KindAsync:
		return "async"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Sentinel errors wrapped by LumenError. Test for them with Is.
var (
	ErrAlreadyInitialized = errors.New("component already initialized")
	ErrNotInitialized     = errors.New("component not initialized")
	ErrNoHost             = errors.New("component requires a host document")
	ErrAlreadyOwned       = errors.New("node already owned by a component")
	ErrNotFound           = errors.New("node is not a child of this node")
	ErrHierarchy          = errors.New("node cannot be inserted at this position")
	ErrEventCanceled      = errors.New("event canceled without responders")
	ErrUnknownComponent   = errors.New("component is not defined")
	ErrAlreadyDefined     = errors.New("component already defined")
)

// LumenError represents a structured error in the lumen runtime.
type LumenError struct {
	// Op is the operation that failed (e.g., "component.Initialize").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Node describes the host node involved, if any.
	Node string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *LumenError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s [%s] node=%s: %v", e.Op, e.Kind, e.Node, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *LumenError) Unwrap() error {
	return e.Err
}

// New returns a LumenError for op wrapping err.
func New(op string, kind ErrorKind, err error) *LumenError {
	return &LumenError{Op: op, Kind: kind, Err: err}
}

// TypeError reports a value or argument that does not satisfy its declared
// type, validator, or argument contract.
type TypeError struct {
	// Name is the property or argument name.
	Name string
	// Value is the offending value.
	Value any
	// Reason describes what was expected.
	Reason string
}

func (e *TypeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %q: %s (got %T %v)", e.Name, e.Reason, e.Value, e.Value)
	}
	return fmt.Sprintf("invalid %q: got %T %v", e.Name, e.Value, e.Value)
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "watch.render").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by the runtime.
type ErrorHandler interface {
	// HandleError is called when an error is reported.
	HandleError(err *LumenError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Join returns an error wrapping errs, ignoring nils. It returns nil when
// every error is nil.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
