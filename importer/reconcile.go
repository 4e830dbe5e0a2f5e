package importer

import (
	"go.uber.org/zap"

	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/backend"
	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/errors"
	"github.com/wippyai/xpu-interop/runtime"
)

// Action is the backend call reconciliation issues for one device.
type Action uint8

const (
	ActionNone Action = iota
	ActionCompile
	ActionBuild
	ActionLink
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionCompile:
		return "compile"
	case ActionBuild:
		return "build"
	case ActionLink:
		return "link"
	default:
		return "unknown"
	}
}

// Plan decides the action that brings one device's program binary to the
// requested bundle state. A binary that is already past the requested state
// is a state mismatch. Binary types it does not know are left alone.
func Plan(binary dispatch.ProgramBinaryType, state xpuinterop.BundleState) (Action, error) {
	a, err := plan(binary, state)
	if err != nil {
		return a, err
	}
	return a, nil
}

func plan(binary dispatch.ProgramBinaryType, state xpuinterop.BundleState) (Action, *errors.Error) {
	switch state {
	case xpuinterop.StateInput, xpuinterop.StateObject, xpuinterop.StateExecutable:
	default:
		return ActionNone, errors.New(errors.PhaseReconcile, errors.KindInvalidInput).
			Object("kernel_bundle").
			Value(state).
			Detail("unknown bundle state %s", state).
			Build()
	}

	switch binary {
	case dispatch.BinaryNone:
		switch state {
		case xpuinterop.StateObject:
			return ActionCompile, nil
		case xpuinterop.StateExecutable:
			return ActionBuild, nil
		}
		return ActionNone, nil

	case dispatch.BinaryCompiledObject, dispatch.BinaryLibrary:
		switch state {
		case xpuinterop.StateInput:
			return ActionNone, errors.StateMismatch(-1, binary.String(), state.String())
		case xpuinterop.StateExecutable:
			return ActionLink, nil
		}
		return ActionNone, nil

	case dispatch.BinaryExecutable:
		if state != xpuinterop.StateExecutable {
			return ActionNone, errors.StateMismatch(-1, binary.String(), state.String())
		}
		return ActionNone, nil
	}
	return ActionNone, nil
}

// reconciler carries the program being driven to a bundle state. program
// changes when a link replaces it.
type reconciler struct {
	plugin  dispatch.Plugin
	ctx     *runtime.Context
	options string
	program dispatch.ProgramHandle
	kind    backend.Kind
	owned   bool
	linked  bool
}

// MakeKernelBundle imports a native program and reconciles every device's
// binary to state. Devices are taken from the backend, in backend order, and
// processed one at a time.
func (im *Importer) MakeKernelBundle(native xpuinterop.NativeHandle, ctx *runtime.Context, ownership xpuinterop.Ownership, state xpuinterop.BundleState, kind backend.Kind) (*runtime.KernelBundle, error) {
	if err := checkContext(ctx, kind, "kernel_bundle"); err != nil {
		return nil, err
	}
	plugin, err := im.resolve(kind, "kernel_bundle")
	if err != nil {
		return nil, err
	}

	ph, res := plugin.ProgramCreateWithNativeHandle(native, ctx.Handle(), nativeProps(ownership))
	if !res.OK() {
		return nil, callFailed(res, dispatch.OpProgramCreateWithNativeHandle, "kernel_bundle", kind)
	}
	if err := retainAfterImport(kind, "kernel_bundle", dispatch.OpProgramRetain, func() dispatch.Result {
		return plugin.ProgramRetain(ph)
	}); err != nil {
		return nil, err
	}

	r := &reconciler{
		plugin:  plugin,
		ctx:     ctx,
		options: im.cfg.BuildOptions,
		program: ph,
		kind:    kind,
		owned:   ownership == xpuinterop.Owned,
	}

	devs, err := r.reconcile(state)
	if err != nil {
		im.cleanup(r)
		return nil, err
	}

	devices := make([]*runtime.Device, 0, len(devs))
	for _, dh := range devs {
		d, err := im.registry.DeviceFor(plugin, dh)
		if err != nil {
			im.cleanup(r)
			return nil, err
		}
		devices = append(devices, d)
	}

	imgOwnership := ownership
	if r.linked {
		imgOwnership = xpuinterop.Owned
	}
	img := runtime.NewDeviceImage(r.program, ctx, devices, state, nil, imgOwnership)
	return runtime.NewKernelBundle(ctx, devices, state, img), nil
}

// reconcile runs the per-device loop and returns the program's devices.
func (r *reconciler) reconcile(state xpuinterop.BundleState) ([]dispatch.DeviceHandle, error) {
	devs, res := r.plugin.ProgramGetDevices(r.program)
	if !res.OK() {
		return nil, r.callFailed(res, dispatch.OpProgramGetDevices)
	}

	for i, dev := range devs {
		binary, res := r.plugin.ProgramGetBinaryType(r.program, dev)
		if !res.OK() {
			return nil, r.callFailed(res, dispatch.OpProgramGetBinaryType)
		}

		action, perr := plan(binary, state)
		if perr != nil {
			perr.Device = i
			perr.Backend = r.kind.String()
			return nil, perr
		}

		if action != ActionNone {
			Logger().Debug("reconciling device",
				zap.Int("device", i),
				zap.Stringer("binary", binary),
				zap.Stringer("state", state),
				zap.Stringer("action", action))
		}

		var err error
		switch action {
		case ActionCompile:
			err = r.compile(i, dev)
		case ActionBuild:
			err = r.build(i, dev)
		case ActionLink:
			err = r.link(i, dev)
		}
		if err != nil {
			return nil, err
		}
	}
	return devs, nil
}

// fallback calls the per-device entry point and, only when the backend
// reports it unsupported, the whole-program one. It returns the name of the
// entry point whose result it returns.
func (r *reconciler) fallback(expOp string, exp func() dispatch.Result, legacyOp string, legacy func() dispatch.Result) (string, dispatch.Result) {
	res := exp()
	if res != dispatch.ResultErrorUnsupportedFeature {
		return expOp, res
	}
	Logger().Debug("per-device entry point unsupported, using whole-program entry point",
		zap.String("op", expOp),
		zap.String("fallback", legacyOp),
		zap.Stringer("backend", r.kind))
	return legacyOp, legacy()
}

func (r *reconciler) compile(i int, dev dispatch.DeviceHandle) error {
	op, res := r.fallback(
		dispatch.OpProgramCompileExp, func() dispatch.Result {
			return r.plugin.ProgramCompileExp(r.program, []dispatch.DeviceHandle{dev}, r.options)
		},
		dispatch.OpProgramCompile, func() dispatch.Result {
			return r.plugin.ProgramCompile(r.ctx.Handle(), r.program, r.options)
		})
	if !res.OK() {
		return r.buildFailed(op, i, dev, res)
	}
	return nil
}

func (r *reconciler) build(i int, dev dispatch.DeviceHandle) error {
	op, res := r.fallback(
		dispatch.OpProgramBuildExp, func() dispatch.Result {
			return r.plugin.ProgramBuildExp(r.program, []dispatch.DeviceHandle{dev}, r.options)
		},
		dispatch.OpProgramBuild, func() dispatch.Result {
			return r.plugin.ProgramBuild(r.ctx.Handle(), r.program, r.options)
		})
	if !res.OK() {
		return r.buildFailed(op, i, dev, res)
	}
	return nil
}

// link replaces the current program with the linked one. The replaced
// program is released when the runtime owns it; the linked program is
// always owned.
func (r *reconciler) link(i int, dev dispatch.DeviceHandle) error {
	var linked dispatch.ProgramHandle
	inputs := []dispatch.ProgramHandle{r.program}

	op, res := r.fallback(
		dispatch.OpProgramLinkExp, func() dispatch.Result {
			var res dispatch.Result
			linked, res = r.plugin.ProgramLinkExp(r.ctx.Handle(), []dispatch.DeviceHandle{dev}, inputs, r.options)
			return res
		},
		dispatch.OpProgramLink, func() dispatch.Result {
			var res dispatch.Result
			linked, res = r.plugin.ProgramLink(r.ctx.Handle(), inputs, r.options)
			return res
		})
	if !res.OK() {
		return r.buildFailed(op, i, dev, res)
	}

	prev := r.program
	r.program = linked
	if r.owned {
		if res := r.plugin.ProgramRelease(prev); !res.OK() {
			Logger().Warn("release of pre-link program failed",
				zap.Stringer("backend", r.kind),
				zap.Stringer("result", res))
		}
	}
	r.owned = true
	r.linked = true
	return nil
}

// buildFailed reports a failed compile, build or link with the device's
// build log. The log query is best effort.
func (r *reconciler) buildFailed(op string, i int, dev dispatch.DeviceHandle, res dispatch.Result) error {
	log, lres := r.plugin.ProgramGetBuildLog(r.program, dev)
	if !lres.OK() {
		log = ""
	}
	err := errors.BuildFailed(op, i, int32(res), log)
	err.Object = "kernel_bundle"
	err.Backend = r.kind.String()
	err.Detail = res.String()
	return err
}

func (r *reconciler) callFailed(res dispatch.Result, op string) error {
	err := errors.BackendCallFailed(errors.PhaseReconcile, op, int32(res))
	err.Object = "kernel_bundle"
	err.Backend = r.kind.String()
	err.Detail = res.String()
	return err
}

// cleanup applies the cleanup policy to a failed reconciliation.
func (im *Importer) cleanup(r *reconciler) {
	if im.cfg.Cleanup == CleanupNone || !r.owned {
		return
	}
	if res := r.plugin.ProgramRelease(r.program); !res.OK() {
		Logger().Warn("cleanup release failed",
			zap.Stringer("backend", r.kind),
			zap.Stringer("result", res))
	}
}
