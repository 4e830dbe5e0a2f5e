package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in the interop flow the error occurred
type Phase string

const (
	PhaseResolve   Phase = "resolve"   // backend call table lookup
	PhaseImport    Phase = "import"    // create-from-native-handle
	PhaseReconcile Phase = "reconcile" // per-device compile/build/link
	PhaseInterop   Phase = "interop"   // host task native handle access
	PhaseRelease   Phase = "release"   // managed object teardown
	PhaseNative    Phase = "native"    // simulated driver side
)

// Kind categorizes the error
type Kind string

const (
	KindUnsupportedBackend     Kind = "unsupported_backend"
	KindBackendCallFailed      Kind = "backend_call_failed"
	KindInvalidConfiguration   Kind = "invalid_configuration"
	KindStateMismatch          Kind = "state_mismatch"
	KindBuildFailed            Kind = "build_failed"
	KindInvalidObjectReference Kind = "invalid_object_reference"
	KindInvalidInput           Kind = "invalid_input"
	KindNotFound               Kind = "not_found"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Object   string // managed object kind, e.g. "queue"
	Op       string // backend entry point, e.g. "ProgramLinkExp"
	Backend  string
	Detail   string
	BuildLog string
	Code     int32 // native result code, 0 when not applicable
	Device   int   // device position for per-device failures, -1 otherwise
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Object != "" {
		b.WriteString(" at ")
		b.WriteString(e.Object)
	}
	if e.Backend != "" {
		b.WriteString(" (")
		b.WriteString(e.Backend)
		b.WriteByte(')')
	}

	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
		if e.Device >= 0 {
			fmt.Fprintf(&b, " on device %d", e.Device)
		}
	}

	if e.Detail != "" {
		if e.Op != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Code != 0 {
		fmt.Fprintf(&b, " [code %d]", e.Code)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	if e.BuildLog != "" {
		b.WriteString("\nbuild log:\n")
		b.WriteString(strings.TrimRight(e.BuildLog, "\n"))
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Device: -1,
		},
	}
}

// Object sets the managed object kind
func (b *Builder) Object(o string) *Builder {
	b.err.Object = o
	return b
}

// Op sets the backend entry point name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Backend sets the backend family name
func (b *Builder) Backend(name string) *Builder {
	b.err.Backend = name
	return b
}

// Code sets the native result code
func (b *Builder) Code(code int32) *Builder {
	b.err.Code = code
	return b
}

// Device sets the position of the failing device
func (b *Builder) Device(i int) *Builder {
	b.err.Device = i
	return b
}

// BuildLog attaches the backend build log
func (b *Builder) BuildLog(log string) *Builder {
	b.err.BuildLog = log
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnsupportedBackend creates an error for a backend with no call table
func UnsupportedBackend(backend string, detail string) *Error {
	return &Error{
		Phase:   PhaseResolve,
		Kind:    KindUnsupportedBackend,
		Backend: backend,
		Detail:  detail,
		Device:  -1,
	}
}

// BackendCallFailed wraps a failing native result code
func BackendCallFailed(phase Phase, op string, code int32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBackendCallFailed,
		Op:     op,
		Code:   code,
		Device: -1,
	}
}

// BuildFailed creates a compile/build/link failure for one device
func BuildFailed(op string, device int, code int32, log string) *Error {
	return &Error{
		Phase:    PhaseReconcile,
		Kind:     KindBuildFailed,
		Op:       op,
		Code:     code,
		Device:   device,
		BuildLog: log,
	}
}

// StateMismatch creates a mismatch between discovered and requested program state
func StateMismatch(device int, binary, requested string) *Error {
	return &Error{
		Phase:  PhaseReconcile,
		Kind:   KindStateMismatch,
		Object: "kernel_bundle",
		Device: device,
		Detail: fmt.Sprintf("program binary is %s but bundle state %s was requested", binary, requested),
	}
}

// InvalidConfiguration creates an error for a disallowed caller-supplied option
func InvalidConfiguration(object, detail string) *Error {
	return &Error{
		Phase:  PhaseImport,
		Kind:   KindInvalidConfiguration,
		Object: object,
		Detail: detail,
		Device: -1,
	}
}

// InvalidObjectReference creates an error for an object not registered with the caller
func InvalidObjectReference(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidObjectReference,
		Detail: fmt.Sprintf("%s not registered", what),
		Device: -1,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
		Device: -1,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
		Device: -1,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
		Device: -1,
	}
}
