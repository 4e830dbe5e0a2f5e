// Package dispatch defines the call table through which the interop layer talks
// to a backend driver.
//
// A Plugin bundles the entry points of one backend family: create-with-native-handle
// for every object kind, native handle retrieval, reference counting, program
// introspection and the two generations of compile/build/link entry points.
// Entry points return a Result instead of an error so that callers can tell an
// unsupported per-device entry point apart from a real failure; Check converts a
// Result into a structured error.
package dispatch
