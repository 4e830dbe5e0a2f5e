package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
		excludes []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseImport,
				Kind:    KindBackendCallFailed,
				Object:  "queue",
				Backend: "opencl",
				Op:      "QueueCreateWithNativeHandle",
				Detail:  "driver refused handle",
				Code:    -54,
				Device:  -1,
			},
			contains: []string{"[import]", "backend_call_failed", "at queue", "(opencl)", "QueueCreateWithNativeHandle", "driver refused handle", "[code -54]"},
			excludes: []string{"on device"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase:  PhaseResolve,
				Kind:   KindUnsupportedBackend,
				Device: -1,
			},
			contains: []string{"[resolve]", "unsupported_backend"},
		},
		{
			name: "build failure with log",
			err:  BuildFailed("ProgramBuildExp", 2, 11, "invalid magic number\n"),
			contains: []string{
				"[reconcile]", "build_failed", "ProgramBuildExp on device 2", "[code 11]",
				"build log:\ninvalid magic number",
			},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseRelease,
				Kind:   KindBackendCallFailed,
				Detail: "release program",
				Cause:  errors.New("underlying error"),
				Device: -1,
			},
			contains: []string{"[release]", "release program", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(msg, s) {
					t.Errorf("error message %q should not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(PhaseReconcile, KindBackendCallFailed, cause, "query devices")

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := StateMismatch(0, "executable", "object")

	if !err.Is(&Error{Phase: PhaseReconcile, Kind: KindStateMismatch}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseImport, Kind: KindStateMismatch}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseReconcile, Kind: KindBuildFailed}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseReconcile, Kind: KindStateMismatch}
	if !errors.Is(fmt.Errorf("import: %w", err), target) {
		t.Error("errors.Is should match through fmt wrapping")
	}
}

func TestIsKind(t *testing.T) {
	inner := BackendCallFailed(PhaseImport, "ProgramRetain", -5)
	outer := Wrap(PhaseReconcile, KindBuildFailed, inner, "link")

	if !IsKind(outer, KindBuildFailed) {
		t.Error("IsKind should match outer kind")
	}
	if !IsKind(outer, KindBackendCallFailed) {
		t.Error("IsKind should match kind of cause")
	}
	if IsKind(outer, KindStateMismatch) {
		t.Error("IsKind matched absent kind")
	}
	if IsKind(errors.New("plain"), KindBuildFailed) {
		t.Error("IsKind matched a plain error")
	}
	if IsKind(nil, KindBuildFailed) {
		t.Error("IsKind matched nil")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseReconcile, KindBuildFailed).
		Object("kernel_bundle").
		Op("ProgramLink").
		Backend("level_zero").
		Code(-11).
		Device(1).
		BuildLog("unresolved symbol").
		Value(42).
		Cause(cause).
		Detail("link %s", "failed").
		Build()

	if err.Phase != PhaseReconcile {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseReconcile)
	}
	if err.Kind != KindBuildFailed {
		t.Errorf("Kind = %v, want %v", err.Kind, KindBuildFailed)
	}
	if err.Object != "kernel_bundle" || err.Op != "ProgramLink" || err.Backend != "level_zero" {
		t.Errorf("Object=%q Op=%q Backend=%q", err.Object, err.Op, err.Backend)
	}
	if err.Code != -11 || err.Device != 1 {
		t.Errorf("Code=%d Device=%d", err.Code, err.Device)
	}
	if err.BuildLog != "unresolved symbol" {
		t.Errorf("BuildLog = %q", err.BuildLog)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "link failed" {
		t.Errorf("Detail = %q, want 'link failed'", err.Detail)
	}
}

func TestBuilder_DefaultsNoDevice(t *testing.T) {
	err := New(PhaseImport, KindBackendCallFailed).Op("EventRetain").Build()
	if err.Device != -1 {
		t.Errorf("Device = %d, want -1", err.Device)
	}
	if strings.Contains(err.Error(), "on device") {
		t.Errorf("message %q mentions a device", err.Error())
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("UnsupportedBackend", func(t *testing.T) {
		err := UnsupportedBackend("native_cpu", "no call table")
		if err.Kind != KindUnsupportedBackend || err.Phase != PhaseResolve {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
		if err.Backend != "native_cpu" {
			t.Errorf("Backend = %q", err.Backend)
		}
	})

	t.Run("InvalidConfiguration", func(t *testing.T) {
		err := InvalidConfiguration("queue", "compute_index")
		if err.Kind != KindInvalidConfiguration || err.Object != "queue" {
			t.Errorf("got %v at %q", err.Kind, err.Object)
		}
	})

	t.Run("InvalidObjectReference", func(t *testing.T) {
		err := InvalidObjectReference(PhaseInterop, "memory requirement")
		if err.Kind != KindInvalidObjectReference {
			t.Errorf("Kind = %v", err.Kind)
		}
		if !strings.Contains(err.Detail, "memory requirement") {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseNative, "kernel", "saxpy")
		if err.Kind != KindNotFound || !strings.Contains(err.Detail, `"saxpy"`) {
			t.Errorf("got %v %q", err.Kind, err.Detail)
		}
	})

	t.Run("InvalidInput", func(t *testing.T) {
		err := InvalidInput(PhaseImport, "nil context")
		if err.Kind != KindInvalidInput {
			t.Errorf("Kind = %v", err.Kind)
		}
	})
}
