// Package importer turns native backend handles into managed runtime objects.
//
// Every Make* operation resolves the backend's call table, asks the backend to
// create its object from the native handle and wraps the result. The
// ownership argument is forwarded as the backend's IsNativeHandleOwned
// property and fixed on the managed object: only Owned objects call the
// backend release entry point when their last reference goes away.
//
// Per-family deviations come from backend.Capabilities. OpenCL objects get a
// retain after import; Level Zero queues carry a native descriptor and Level
// Zero kernels need the program of a single-image bundle.
//
// MakeKernelBundle additionally reconciles a program. Each device's binary
// type is queried from the backend and Plan picks the one call that reaches
// the requested bundle state:
//
//	binary \ state    input      object     executable
//	none              -          compile    build
//	object, library   mismatch   -          link
//	executable        mismatch   mismatch   -
//
// Compile, build and link use the per-device entry point and fall back to the
// whole-program one only when the backend reports the former unsupported.
// A link replaces the program; the result is always owned by the runtime.
package importer
