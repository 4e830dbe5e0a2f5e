package main

import (
	"context"
	"math"
	"slices"
	"strings"
	"testing"

	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/backend"
	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/errors"
	"github.com/wippyai/xpu-interop/importer"
	"github.com/wippyai/xpu-interop/plugins/wasmdev"
)

func addOptions(kind backend.Kind) options {
	return options{
		source:  "add.wasm",
		binary:  wasmdev.AddModule,
		kind:    kind,
		state:   xpuinterop.StateExecutable,
		devices: 2,
	}
}

func TestRunImport_BuildAndRun(t *testing.T) {
	opts := addOptions(backend.OpenCL)
	opts.kernel = "add"
	opts.args = []uint64{2, 3}

	rep, err := runImport(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if rep.err != nil {
		t.Fatalf("import error: %v", rep.err)
	}

	if len(rep.rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rep.rows))
	}
	for _, r := range rep.rows {
		if r.before != dispatch.BinaryNone || r.action != importer.ActionBuild || r.after != dispatch.BinaryExecutable {
			t.Errorf("device %d: %v -%v-> %v", r.index, r.before, r.action, r.after)
		}
	}
	if n := countOp(rep.calls, dispatch.OpProgramBuildExp); n != 2 {
		t.Errorf("ProgramBuildExp calls = %d, want 2", n)
	}
	if rep.linked {
		t.Error("build reported as link")
	}
	if !slices.Equal(rep.results, []uint64{5}) {
		t.Errorf("add(2, 3) = %v, want [5]", rep.results)
	}
}

func TestRunImport_Legacy(t *testing.T) {
	opts := addOptions(backend.CUDA)
	opts.legacy = true

	rep, err := runImport(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if rep.err != nil {
		t.Fatalf("import error: %v", rep.err)
	}
	if n := countOp(rep.calls, dispatch.OpProgramBuild); n != 1 {
		t.Errorf("ProgramBuild calls = %d, want 1: %v", n, rep.calls)
	}
}

func TestRunImport_Link(t *testing.T) {
	opts := addOptions(backend.LevelZero)
	opts.initial = []dispatch.ProgramBinaryType{dispatch.BinaryCompiledObject}
	opts.keep = true

	rep, err := runImport(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if rep.err != nil {
		t.Fatalf("import error: %v", rep.err)
	}
	if !rep.linked {
		t.Error("link not reported")
	}
	if rep.ownership != xpuinterop.NotOwned || rep.bundle != xpuinterop.Owned {
		t.Errorf("ownership = %v, bundle = %v", rep.ownership, rep.bundle)
	}
	for _, r := range rep.rows {
		if r.action != importer.ActionLink || r.after != dispatch.BinaryExecutable {
			t.Errorf("device %d: %v -%v-> %v", r.index, r.before, r.action, r.after)
		}
	}
}

func TestRunImport_StateMismatch(t *testing.T) {
	opts := addOptions(backend.HIP)
	opts.initial = []dispatch.ProgramBinaryType{dispatch.BinaryExecutable}
	opts.state = xpuinterop.StateObject

	rep, err := runImport(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !errors.IsKind(rep.err, errors.KindStateMismatch) {
		t.Fatalf("error = %v, want state mismatch", rep.err)
	}
	for _, r := range rep.rows {
		if r.plan == nil {
			t.Errorf("device %d: plan accepted executable -> object", r.index)
		}
	}

	out := renderReport(rep, false)
	if !strings.Contains(out, "reject") || !strings.Contains(out, "error: ") {
		t.Errorf("report missing rejection:\n%s", out)
	}
}

func TestRenderReport_Plain(t *testing.T) {
	opts := addOptions(backend.OpenCL)
	opts.kernel = "add"
	opts.args = []uint64{40, 2}

	rep, err := runImport(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	out := renderReport(rep, false)

	for _, want := range []string{"opencl: add.wasm -> executable", "DEVICE", "build", dispatch.OpProgramBuildExp, "add(40, 2) = 42"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("plain report contains escape sequences")
	}
}

func TestParseBinaryTypes(t *testing.T) {
	got, err := parseBinaryTypes("none, object,library,exe")
	if err != nil {
		t.Fatal(err)
	}
	want := []dispatch.ProgramBinaryType{
		dispatch.BinaryNone, dispatch.BinaryCompiledObject, dispatch.BinaryLibrary, dispatch.BinaryExecutable,
	}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := parseBinaryTypes("object,bitcode"); err == nil {
		t.Error("unknown binary type accepted")
	}
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		in      string
		want    []uint64
		wantErr bool
	}{
		{"", nil, false},
		{"2,3", []uint64{2, 3}, false},
		{" 7 ", []uint64{7}, false},
		{"-1", []uint64{math.MaxUint64}, false},
		{"18446744073709551615", []uint64{math.MaxUint64}, false},
		{"1,x", nil, true},
	}

	for _, tt := range tests {
		got, err := parseArgs(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseArgs(%q) error = %v", tt.in, err)
			continue
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("parseArgs(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions("", "l0", "object", "library", "none", "1")
	if err != nil {
		t.Fatal(err)
	}
	if opts.kind != backend.LevelZero || opts.state != xpuinterop.StateObject || opts.cleanup != importer.CleanupNone {
		t.Errorf("opts = %+v", opts)
	}
	if opts.source != "add.wasm" || len(opts.binary) == 0 {
		t.Errorf("default program not used: %q", opts.source)
	}

	bad := [][6]string{
		{"", "metal", "executable", "", "release", ""},
		{"", "cuda", "linked", "", "release", ""},
		{"", "cuda", "executable", "", "sometimes", ""},
		{"/nonexistent/prog.wasm", "cuda", "executable", "", "release", ""},
	}
	for _, b := range bad {
		if _, err := parseOptions(b[0], b[1], b[2], b[3], b[4], b[5]); err == nil {
			t.Errorf("parseOptions%v accepted", b)
		}
	}
}

func TestExpandStates(t *testing.T) {
	one := []dispatch.ProgramBinaryType{dispatch.BinaryLibrary}
	if got := expandStates(one, 3); len(got) != 3 || got[2] != dispatch.BinaryLibrary {
		t.Errorf("expandStates = %v", got)
	}
	two := []dispatch.ProgramBinaryType{dispatch.BinaryNone, dispatch.BinaryLibrary}
	if got := expandStates(two, 3); !slices.Equal(got, two) {
		t.Errorf("explicit per-device states changed: %v", got)
	}
}

func countOp(calls []string, op string) int {
	n := 0
	for _, c := range calls {
		if c == op {
			n++
		}
	}
	return n
}
