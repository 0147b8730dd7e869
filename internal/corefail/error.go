// Package corefail defines the error taxonomy shared by every layer of the
// refactor core: planning, reference updates, plugin calls, and execution.
package corefail

import (
	"errors"
	"fmt"
)

// Kind classifies a failure the way callers need to react to it.
type Kind string

const (
	// NotFound means a required path does not exist.
	NotFound Kind = "NotFound"
	// AlreadyExists means a create target already exists without override.
	AlreadyExists Kind = "AlreadyExists"
	// InvalidRequest means malformed input: a bad path or invalid parameter.
	InvalidRequest Kind = "InvalidRequest"
	// ParseError means a plugin could not parse a file; recoverable per-file.
	ParseError Kind = "ParseError"
	// PreconditionFailed means a checksum mismatch was found at execute time.
	PreconditionFailed Kind = "PreconditionFailed"
	// UnsupportedOperation means the plugin lacks the requested capability.
	UnsupportedOperation Kind = "UnsupportedOperation"
	// ManifestError means a manifest parse or edit failure.
	ManifestError Kind = "ManifestError"
	// PluginCallFailed means an in-process or out-of-process plugin call
	// failed; Cause distinguishes why.
	PluginCallFailed Kind = "PluginCallFailed"
	// Cancelled means a cancellation token fired.
	Cancelled Kind = "Cancelled"
	// Internal means an invariant violation or unexpected I/O error.
	Internal Kind = "Internal"
)

// Cause refines a PluginCallFailed error. It unifies the in-process
// (direct Go error/panic) and out-of-process (subprocess RPC) failure
// shapes behind one taxonomy member instead of two divergent ones.
type Cause string

const (
	// TimeoutCause means an out-of-process call's response never arrived
	// within the configured deadline.
	TimeoutCause Cause = "timeout"
	// ChannelClosedCause means the plugin subprocess exited or its pipe
	// closed while a call was in flight.
	ChannelClosedCause Cause = "channel_closed"
	// InternalCause means a plugin subprocess could not be started or
	// dispensed, or a plugin call returned an error.
	InternalCause Cause = "internal"
)

// Error is the concrete error type returned by every core component.
type Error struct {
	Kind   Kind
	Cause  Cause // only meaningful when Kind == PluginCallFailed
	Path   string
	Plugin string
	msg    string
	err    error
}

func (e *Error) Error() string {
	parts := string(e.Kind)
	if e.Plugin != "" {
		parts += " (" + e.Plugin + ")"
	}
	if e.Path != "" {
		parts += ": " + e.Path
	}
	if e.msg != "" {
		parts += ": " + e.msg
	}
	if e.err != nil {
		parts += ": " + e.err.Error()
	}
	return parts
}

func (e *Error) Unwrap() error { return e.err }

// Is makes errors.Is(err, target) match when target is (or wraps) a
// *Error of the same Kind, comparing Kind instead of identity.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New builds an Error of the given Kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given Kind that wraps a lower-level cause.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...), err: cause}
}

// WithPath attaches the offending path to the error for diagnostics.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithPlugin attaches the plugin name that produced or suffered the error.
func (e *Error) WithPlugin(name string) *Error {
	e.Plugin = name
	return e
}

// PluginFailure builds a PluginCallFailed error with an explicit Cause,
// resolving Open Question #3: in-process and out-of-process plugin calls
// both surface through this single constructor.
func PluginFailure(cause Cause, plugin string, err error) *Error {
	return &Error{Kind: PluginCallFailed, Cause: cause, Plugin: plugin, err: err}
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error, defaulting
// to Internal for anything else so callers can always switch on a Kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind reports whether err is (or wraps) a *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
