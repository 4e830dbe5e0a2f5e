package importer

import (
	"testing"

	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/backend"
	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/errors"
	"github.com/wippyai/xpu-interop/plugins/wasmdev"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		binary   dispatch.ProgramBinaryType
		state    xpuinterop.BundleState
		want     Action
		mismatch bool
	}{
		{dispatch.BinaryNone, xpuinterop.StateInput, ActionNone, false},
		{dispatch.BinaryNone, xpuinterop.StateObject, ActionCompile, false},
		{dispatch.BinaryNone, xpuinterop.StateExecutable, ActionBuild, false},
		{dispatch.BinaryCompiledObject, xpuinterop.StateInput, ActionNone, true},
		{dispatch.BinaryCompiledObject, xpuinterop.StateObject, ActionNone, false},
		{dispatch.BinaryCompiledObject, xpuinterop.StateExecutable, ActionLink, false},
		{dispatch.BinaryLibrary, xpuinterop.StateInput, ActionNone, true},
		{dispatch.BinaryLibrary, xpuinterop.StateObject, ActionNone, false},
		{dispatch.BinaryLibrary, xpuinterop.StateExecutable, ActionLink, false},
		{dispatch.BinaryExecutable, xpuinterop.StateInput, ActionNone, true},
		{dispatch.BinaryExecutable, xpuinterop.StateObject, ActionNone, true},
		{dispatch.BinaryExecutable, xpuinterop.StateExecutable, ActionNone, false},
		{dispatch.ProgramBinaryType(42), xpuinterop.StateExecutable, ActionNone, false},
		{dispatch.ProgramBinaryType(42), xpuinterop.StateInput, ActionNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.binary.String()+"/"+tt.state.String(), func(t *testing.T) {
			got, err := Plan(tt.binary, tt.state)
			if tt.mismatch {
				if !errors.IsKind(err, errors.KindStateMismatch) {
					t.Fatalf("Plan error = %v, want state mismatch", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Plan error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Plan = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlan_UnknownState(t *testing.T) {
	_, err := Plan(dispatch.BinaryNone, xpuinterop.BundleState(9))
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("Plan error = %v, want invalid input", err)
	}
}

func TestMakeKernelBundle_StateTable(t *testing.T) {
	tests := []struct {
		name     string
		initial  dispatch.ProgramBinaryType
		state    xpuinterop.BundleState
		final    dispatch.ProgramBinaryType
		op       string
		mismatch bool
	}{
		{"none to input", dispatch.BinaryNone, xpuinterop.StateInput, dispatch.BinaryNone, "", false},
		{"none to object", dispatch.BinaryNone, xpuinterop.StateObject, dispatch.BinaryCompiledObject, dispatch.OpProgramCompileExp, false},
		{"none to executable", dispatch.BinaryNone, xpuinterop.StateExecutable, dispatch.BinaryExecutable, dispatch.OpProgramBuildExp, false},
		{"object to input", dispatch.BinaryCompiledObject, xpuinterop.StateInput, 0, "", true},
		{"object to object", dispatch.BinaryCompiledObject, xpuinterop.StateObject, dispatch.BinaryCompiledObject, "", false},
		{"object to executable", dispatch.BinaryCompiledObject, xpuinterop.StateExecutable, dispatch.BinaryExecutable, dispatch.OpProgramLinkExp, false},
		{"library to object", dispatch.BinaryLibrary, xpuinterop.StateObject, dispatch.BinaryLibrary, "", false},
		{"library to executable", dispatch.BinaryLibrary, xpuinterop.StateExecutable, dispatch.BinaryExecutable, dispatch.OpProgramLinkExp, false},
		{"executable to input", dispatch.BinaryExecutable, xpuinterop.StateInput, 0, "", true},
		{"executable to object", dispatch.BinaryExecutable, xpuinterop.StateObject, 0, "", true},
		{"executable to executable", dispatch.BinaryExecutable, xpuinterop.StateExecutable, dispatch.BinaryExecutable, "", false},
	}

	for _, kind := range []backend.Kind{backend.OpenCL, backend.CUDA} {
		for _, tt := range tests {
			t.Run(kind.String()+"/"+tt.name, func(t *testing.T) {
				f := newFixture(t, wasmdev.Config{Kind: kind, Devices: 2}, Config{})
				np := f.program(t, wasmdev.AddModule, tt.initial, tt.initial)

				kb, err := f.im.MakeKernelBundle(np, f.ctx, xpuinterop.Owned, tt.state, kind)
				if tt.mismatch {
					if !errors.IsKind(err, errors.KindStateMismatch) {
						t.Fatalf("error = %v, want state mismatch", err)
					}
					if f.compileCalls() != 0 {
						t.Errorf("mismatch issued compile calls: %v", f.drv.Calls())
					}
					return
				}
				if err != nil {
					t.Fatalf("MakeKernelBundle error: %v", err)
				}
				defer kb.Release()

				if kb.State() != tt.state {
					t.Errorf("State() = %v, want %v", kb.State(), tt.state)
				}
				if kb.Size() != 1 {
					t.Fatalf("Size() = %d, want 1", kb.Size())
				}

				wantCalls := 0
				if tt.op != "" {
					wantCalls = 2
				}
				if got := f.compileCalls(); got != wantCalls {
					t.Errorf("compile/build/link calls = %d, want %d (%v)", got, wantCalls, f.drv.Calls())
				}
				if tt.op != "" {
					if n := f.drv.CountCalls(tt.op); n != 2 {
						t.Errorf("%s calls = %d, want 2", tt.op, n)
					}
				}

				native, err := kb.Images()[0].Native()
				if err != nil {
					t.Fatal(err)
				}
				for i, nd := range f.drv.NativeDevices() {
					bt, ok := f.drv.NativeBinaryType(native, nd)
					if !ok || bt != tt.final {
						t.Errorf("device %d binary = %v, want %v", i, bt, tt.final)
					}
				}
			})
		}
	}
}

func TestMakeKernelBundle_Idempotent(t *testing.T) {
	f := newFixture(t, wasmdev.Config{Kind: backend.LevelZero, Devices: 3}, Config{})
	np := f.program(t, wasmdev.AddModule)

	first, err := f.im.MakeKernelBundle(np, f.ctx, xpuinterop.NotOwned, xpuinterop.StateExecutable, backend.LevelZero)
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	defer first.Release()

	f.drv.ResetCalls()
	second, err := f.im.MakeKernelBundle(np, f.ctx, xpuinterop.NotOwned, xpuinterop.StateExecutable, backend.LevelZero)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	defer second.Release()

	if n := f.compileCalls(); n != 0 {
		t.Errorf("second import issued %d compile/build/link calls: %v", n, f.drv.Calls())
	}
	for i, d := range second.Devices() {
		if d != first.Devices()[i] {
			t.Errorf("device %d not deduplicated", i)
		}
	}
}

func TestMakeKernelBundle_SingleDeviceBuild(t *testing.T) {
	tests := []struct {
		name       string
		disableExp bool
		exp        int
		legacy     int
	}{
		{"per-device", false, 1, 0},
		{"legacy fallback", true, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, wasmdev.Config{Kind: backend.HIP, DisableExp: tt.disableExp}, Config{})
			np := f.program(t, wasmdev.AddModule)

			kb, err := f.im.MakeKernelBundle(np, f.ctx, xpuinterop.Owned, xpuinterop.StateExecutable, backend.HIP)
			if err != nil {
				t.Fatalf("MakeKernelBundle error: %v", err)
			}
			defer kb.Release()

			if n := f.drv.CountCalls(dispatch.OpProgramBuildExp); n != tt.exp {
				t.Errorf("ProgramBuildExp calls = %d, want %d", n, tt.exp)
			}
			if n := f.drv.CountCalls(dispatch.OpProgramBuild); n != tt.legacy {
				t.Errorf("ProgramBuild calls = %d, want %d", n, tt.legacy)
			}

			if len(kb.Devices()) != 1 {
				t.Fatalf("devices = %d, want 1", len(kb.Devices()))
			}
			got, err := kb.Devices()[0].Native()
			if err != nil {
				t.Fatal(err)
			}
			if want := f.drv.NativeDevices()[0]; got != want {
				t.Errorf("bundle device = %d, want discovered device %d", got, want)
			}
		})
	}
}

func TestMakeKernelBundle_DeviceSetFromBackend(t *testing.T) {
	f := newFixture(t, wasmdev.Config{Kind: backend.CUDA, Devices: 3}, Config{})
	d2 := f.drv.NativeDevices()[2]
	np, err := f.drv.NativeProgram(f.nctx, wasmdev.AddModule, &wasmdev.ProgramOptions{
		Devices: []xpuinterop.NativeHandle{d2},
	})
	if err != nil {
		t.Fatal(err)
	}

	kb, err := f.im.MakeKernelBundle(np, f.ctx, xpuinterop.Owned, xpuinterop.StateObject, backend.CUDA)
	if err != nil {
		t.Fatalf("MakeKernelBundle error: %v", err)
	}
	defer kb.Release()

	if len(kb.Devices()) != 1 || kb.Devices()[0] != f.devices[2] {
		t.Errorf("bundle devices = %v, want only device 2", kb.Devices())
	}
}

func TestMakeKernelBundle_BuildFailure(t *testing.T) {
	tests := []struct {
		name      string
		cleanup   CleanupPolicy
		ownership xpuinterop.Ownership
		releases  int
		alive     bool
	}{
		{"release owned", CleanupRelease, xpuinterop.Owned, 1, false},
		{"keep when not owned", CleanupRelease, xpuinterop.NotOwned, 0, true},
		{"legacy leak", CleanupNone, xpuinterop.Owned, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, wasmdev.Config{Kind: backend.CUDA}, Config{Cleanup: tt.cleanup})
			np := f.program(t, []byte("\x00asm\x02\x00\x00\x00"))

			_, err := f.im.MakeKernelBundle(np, f.ctx, tt.ownership, xpuinterop.StateExecutable, backend.CUDA)
			if !errors.IsKind(err, errors.KindBuildFailed) {
				t.Fatalf("error = %v, want build failed", err)
			}
			e := err.(*errors.Error)
			if e.BuildLog == "" {
				t.Error("build failure carries no build log")
			}
			if e.Device != 0 || e.Op != dispatch.OpProgramBuildExp {
				t.Errorf("Device=%d Op=%q", e.Device, e.Op)
			}
			if e.Code != int32(dispatch.ResultErrorProgramBuildFailure) {
				t.Errorf("Code = %d", e.Code)
			}

			if n := f.drv.CountCalls(dispatch.OpProgramRelease); n != tt.releases {
				t.Errorf("ProgramRelease calls = %d, want %d", n, tt.releases)
			}
			if f.drv.NativeAlive(np) != tt.alive {
				t.Errorf("native program alive = %v, want %v", f.drv.NativeAlive(np), tt.alive)
			}
		})
	}
}

func TestMakeKernelBundle_LinkFailureLog(t *testing.T) {
	f := newFixture(t, wasmdev.Config{Kind: backend.CUDA}, Config{})
	np := f.program(t, wasmdev.AddModule, dispatch.BinaryCompiledObject)

	f.drv.FailNext(dispatch.OpProgramLinkExp, dispatch.ResultErrorProgramLinkFailure)
	_, err := f.im.MakeKernelBundle(np, f.ctx, xpuinterop.NotOwned, xpuinterop.StateExecutable, backend.CUDA)
	if !errors.IsKind(err, errors.KindBuildFailed) {
		t.Fatalf("error = %v, want build failed", err)
	}
	if n := f.drv.CountCalls(dispatch.OpProgramLink); n != 0 {
		t.Errorf("legacy link called %d times after a non-unsupported failure", n)
	}
}

func TestMakeKernelBundle_LinkReleasesReplacedProgram(t *testing.T) {
	tests := []struct {
		name      string
		ownership xpuinterop.Ownership
		alive     bool
	}{
		{"owned", xpuinterop.Owned, false},
		{"not owned", xpuinterop.NotOwned, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, wasmdev.Config{Kind: backend.OpenCL}, Config{})
			np := f.program(t, wasmdev.AddModule, dispatch.BinaryLibrary)

			kb, err := f.im.MakeKernelBundle(np, f.ctx, tt.ownership, xpuinterop.StateExecutable, backend.OpenCL)
			if err != nil {
				t.Fatalf("MakeKernelBundle error: %v", err)
			}
			if f.drv.NativeAlive(np) != tt.alive {
				t.Errorf("input program alive = %v, want %v", f.drv.NativeAlive(np), tt.alive)
			}
			if kb.Ownership() != xpuinterop.Owned {
				t.Errorf("linked bundle ownership = %v, want owned", kb.Ownership())
			}

			linked, _ := kb.Images()[0].Native()
			if err := kb.Release(); err != nil {
				t.Fatalf("Release error: %v", err)
			}
			if f.drv.NativeAlive(linked) {
				t.Error("linked program should be released with the bundle")
			}
		})
	}
}

func TestMakeKernelBundle_Ownership(t *testing.T) {
	for _, kind := range []backend.Kind{backend.OpenCL, backend.LevelZero, backend.CUDA, backend.HIP} {
		for _, keep := range []bool{true, false} {
			ownership := xpuinterop.OwnershipFromKeep(keep)
			t.Run(kind.String()+"/"+ownership.String(), func(t *testing.T) {
				f := newFixture(t, wasmdev.Config{Kind: kind}, Config{})
				np := f.program(t, wasmdev.AddModule)

				kb, err := f.im.MakeKernelBundle(np, f.ctx, ownership, xpuinterop.StateExecutable, kind)
				if err != nil {
					t.Fatalf("MakeKernelBundle error: %v", err)
				}
				if err := kb.Release(); err != nil {
					t.Fatalf("Release error: %v", err)
				}

				want := 1
				if keep {
					want = 0
				}
				if n := f.drv.CountCalls(dispatch.OpProgramRelease); n != want {
					t.Errorf("ProgramRelease calls = %d, want %d", n, want)
				}
				if f.drv.NativeAlive(np) != keep {
					t.Errorf("native program alive = %v, want %v", f.drv.NativeAlive(np), keep)
				}
			})
		}
	}
}

func TestMakeKernelBundle_RetainCorrection(t *testing.T) {
	for _, kind := range []backend.Kind{backend.OpenCL, backend.CUDA} {
		t.Run(kind.String(), func(t *testing.T) {
			f := newFixture(t, wasmdev.Config{Kind: kind}, Config{})
			np := f.program(t, wasmdev.AddModule)

			kb, err := f.im.MakeKernelBundle(np, f.ctx, xpuinterop.Owned, xpuinterop.StateInput, kind)
			if err != nil {
				t.Fatalf("MakeKernelBundle error: %v", err)
			}
			defer kb.Release()

			want := 0
			if kind == backend.OpenCL {
				want = 1
			}
			if n := f.drv.CountCalls(dispatch.OpProgramRetain); n != want {
				t.Errorf("ProgramRetain calls = %d, want %d", n, want)
			}
		})
	}
}
