// Package errors provides structured error types for the interop layer.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the backend entry point, the native result code, the
// failing device position and, for compile/build/link failures, the backend build log.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseImport, errors.KindBackendCallFailed).
//		Object("queue").
//		Op("QueueCreateWithNativeHandle").
//		Code(int32(res)).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.StateMismatch(0, "executable", "object")
//	err := errors.BuildFailed("ProgramBuildExp", 1, code, log)
//
// All errors implement the standard error interface and support errors.Is/As.
// IsKind matches a Kind anywhere in a chain of *Error causes.
package errors
