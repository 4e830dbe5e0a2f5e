package xpuinterop

import "fmt"

// NativeHandle is an opaque backend-defined value. Its meaning depends on the
// backend family and object kind it travels with; it is never dereferenced here.
type NativeHandle uint64

// Ownership records who releases the native resource behind a managed object.
type Ownership uint8

const (
	// Owned means the runtime releases the native resource when the managed
	// object is destroyed.
	Owned Ownership = iota
	// NotOwned means the caller keeps ownership and the runtime never releases it.
	NotOwned
)

// OwnershipFromKeep maps the conventional keepOwnership flag to an Ownership.
func OwnershipFromKeep(keepOwnership bool) Ownership {
	if keepOwnership {
		return NotOwned
	}
	return Owned
}

func (o Ownership) String() string {
	switch o {
	case Owned:
		return "owned"
	case NotOwned:
		return "not_owned"
	default:
		return fmt.Sprintf("ownership(%d)", uint8(o))
	}
}

// BundleState is the compilation stage requested for a kernel bundle.
type BundleState uint8

const (
	StateInput BundleState = iota
	StateObject
	StateExecutable
)

func (s BundleState) String() string {
	switch s {
	case StateInput:
		return "input"
	case StateObject:
		return "object"
	case StateExecutable:
		return "executable"
	default:
		return fmt.Sprintf("bundle_state(%d)", uint8(s))
	}
}

// ParseBundleState parses the names produced by BundleState.String.
func ParseBundleState(s string) (BundleState, error) {
	switch s {
	case "input":
		return StateInput, nil
	case "object":
		return StateObject, nil
	case "executable", "exe":
		return StateExecutable, nil
	}
	return 0, fmt.Errorf("unknown bundle state %q", s)
}
