package main

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/backend"
	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/importer"
	"github.com/wippyai/xpu-interop/plugins/wasmdev"
	"github.com/wippyai/xpu-interop/runtime"
)

// options describe one import through a simulated backend.
type options struct {
	source       string
	buildOptions string
	kernel       string
	binary       []byte
	initial      []dispatch.ProgramBinaryType
	args         []uint64
	devices      int
	kind         backend.Kind
	state        xpuinterop.BundleState
	cleanup      importer.CleanupPolicy
	keep         bool
	legacy       bool
}

type deviceRow struct {
	plan   error
	index  int
	native xpuinterop.NativeHandle
	before dispatch.ProgramBinaryType
	after  dispatch.ProgramBinaryType
	action importer.Action
	done   bool
}

// report is the outcome of runImport. err is the import or kernel error, if
// any; the rest describes how far the import got.
type report struct {
	err       error
	calls     []string
	rows      []deviceRow
	results   []uint64
	opts      options
	ownership xpuinterop.Ownership
	bundle    xpuinterop.Ownership
	linked    bool
}

// runImport creates a driver, imports a native program built from
// opts.binary and reconciles it to opts.state. Setup failures are returned;
// import failures are recorded on the report.
func runImport(ctx context.Context, opts options) (*report, error) {
	drv, err := wasmdev.New(ctx, wasmdev.Config{
		Kind:       opts.kind,
		Devices:    opts.devices,
		DisableExp: opts.legacy,
	})
	if err != nil {
		return nil, fmt.Errorf("create driver: %w", err)
	}
	defer drv.Close(ctx)

	kind := drv.Backend()
	im := importer.New(
		backend.NewResolver(map[backend.Kind]dispatch.Plugin{kind: drv}),
		runtime.NewRegistry(),
		importer.Config{Cleanup: opts.cleanup, BuildOptions: opts.buildOptions},
	)

	rep := &report{opts: opts, ownership: xpuinterop.OwnershipFromKeep(opts.keep)}

	natives := drv.NativeDevices()
	devices := make([]*runtime.Device, 0, len(natives))
	for _, nd := range natives {
		d, err := im.MakeDevice(nd, kind)
		if err != nil {
			rep.err = err
			return rep, nil
		}
		devices = append(devices, d)
	}

	nctx, err := drv.NativeContext()
	if err != nil {
		return nil, err
	}
	c, err := im.MakeContext(nctx, kind, xpuinterop.NotOwned, nil, devices...)
	if err != nil {
		rep.err = err
		return rep, nil
	}
	defer c.Release()

	np, err := drv.NativeProgram(nctx, opts.binary, &wasmdev.ProgramOptions{
		States: expandStates(opts.initial, len(natives)),
	})
	if err != nil {
		return nil, fmt.Errorf("create native program: %w", err)
	}

	for i, nd := range natives {
		before, _ := drv.NativeBinaryType(np, nd)
		action, perr := importer.Plan(before, opts.state)
		rep.rows = append(rep.rows, deviceRow{
			index:  i,
			native: nd,
			before: before,
			after:  before,
			action: action,
			plan:   perr,
		})
	}

	drv.ResetCalls()
	kb, err := im.MakeKernelBundle(np, c, rep.ownership, opts.state, kind)
	rep.calls = drv.Calls()
	if err != nil {
		rep.err = err
		return rep, nil
	}
	defer kb.Release()

	rep.bundle = kb.Ownership()

	rep.linked = slices.ContainsFunc(rep.calls, func(op string) bool {
		return op == dispatch.OpProgramLinkExp || op == dispatch.OpProgramLink
	})
	program, err := kb.Images()[0].Native()
	if err != nil {
		rep.err = err
		return rep, nil
	}
	for i := range rep.rows {
		after, ok := drv.NativeBinaryType(program, rep.rows[i].native)
		rep.rows[i].after = after
		rep.rows[i].done = ok
	}

	if opts.kernel == "" {
		return rep, nil
	}

	nk, err := drv.NativeKernel(program, opts.kernel)
	if err != nil {
		rep.err = err
		return rep, nil
	}
	k, err := im.MakeKernel(nk, c, kb, xpuinterop.Owned, kind)
	if err != nil {
		rep.err = err
		return rep, nil
	}
	defer k.Release()

	rep.results, rep.err = drv.Run(ctx, nk, opts.args...)
	return rep, nil
}

// expandStates repeats a single initial state for every device.
func expandStates(states []dispatch.ProgramBinaryType, devices int) []dispatch.ProgramBinaryType {
	if len(states) != 1 || devices <= 1 {
		return states
	}
	out := make([]dispatch.ProgramBinaryType, devices)
	for i := range out {
		out[i] = states[0]
	}
	return out
}

func parseBinaryType(s string) (dispatch.ProgramBinaryType, error) {
	switch strings.TrimSpace(s) {
	case "none", "":
		return dispatch.BinaryNone, nil
	case "object", "compiled_object":
		return dispatch.BinaryCompiledObject, nil
	case "library", "lib":
		return dispatch.BinaryLibrary, nil
	case "executable", "exe":
		return dispatch.BinaryExecutable, nil
	}
	return dispatch.BinaryNone, fmt.Errorf("unknown binary type %q", s)
}

// parseBinaryTypes parses a comma-separated list of binary types.
func parseBinaryTypes(s string) ([]dispatch.ProgramBinaryType, error) {
	if s == "" {
		return nil, nil
	}
	var out []dispatch.ProgramBinaryType
	for _, part := range strings.Split(s, ",") {
		t, err := parseBinaryType(part)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// parseArgs parses comma-separated integer kernel arguments. Negative values
// are passed in two's complement.
func parseArgs(s string) ([]uint64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []uint64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			u, uerr := strconv.ParseUint(part, 10, 64)
			if uerr != nil {
				return nil, fmt.Errorf("argument %q: %w", part, err)
			}
			out = append(out, u)
			continue
		}
		out = append(out, uint64(v))
	}
	return out, nil
}
