package wasmdev

import (
	"context"
	"maps"

	"go.uber.org/zap"

	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/resource"
)

func (d *Driver) programNative(p dispatch.ProgramHandle) (*backendObject, *nativeProgram, bool) {
	obj, ok := d.object(uint64(p), typeProgram)
	if !ok {
		return nil, nil, false
	}
	v, ok := d.native.GetTyped(obj.native, typeProgram)
	if !ok {
		return nil, nil, false
	}
	return obj, v.(*nativeProgram), true
}

func (d *Driver) ProgramCreateWithNativeHandle(native xpuinterop.NativeHandle, ctx dispatch.ContextHandle, props *dispatch.NativeProperties) (dispatch.ProgramHandle, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpProgramCreateWithNativeHandle); failed {
		return 0, res
	}
	v, ok := d.nativeValue(native, typeProgram)
	if !ok {
		return 0, dispatch.ResultErrorInvalidNativeHandle
	}
	nctx, _, ok := d.contextNative(ctx)
	if !ok || nctx != v.(*nativeProgram).context {
		return 0, dispatch.ResultErrorInvalidContext
	}

	_, h := d.wrap(typeProgram, resource.Handle(native), props != nil && props.IsNativeHandleOwned, d.importRefs())
	return dispatch.ProgramHandle(h), dispatch.ResultSuccess
}

func (d *Driver) ProgramGetNativeHandle(p dispatch.ProgramHandle) (xpuinterop.NativeHandle, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpProgramGetNativeHandle); failed {
		return 0, res
	}
	obj, ok := d.object(uint64(p), typeProgram)
	if !ok {
		return 0, dispatch.ResultErrorInvalidProgram
	}
	return xpuinterop.NativeHandle(obj.native), dispatch.ResultSuccess
}

func (d *Driver) ProgramRetain(p dispatch.ProgramHandle) dispatch.Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpProgramRetain); failed {
		return res
	}
	return d.retain(uint64(p), typeProgram, dispatch.ResultErrorInvalidProgram)
}

func (d *Driver) ProgramRelease(p dispatch.ProgramHandle) dispatch.Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpProgramRelease); failed {
		return res
	}
	return d.release(uint64(p), typeProgram, dispatch.ResultErrorInvalidProgram)
}

func (d *Driver) ProgramGetDevices(p dispatch.ProgramHandle) ([]dispatch.DeviceHandle, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpProgramGetDevices); failed {
		return nil, res
	}
	_, np, ok := d.programNative(p)
	if !ok {
		return nil, dispatch.ResultErrorInvalidProgram
	}
	out := make([]dispatch.DeviceHandle, len(np.devices))
	for i, nd := range np.devices {
		out[i] = d.deviceObject(nd)
	}
	return out, dispatch.ResultSuccess
}

func (d *Driver) ProgramGetBinaryType(p dispatch.ProgramHandle, dev dispatch.DeviceHandle) (dispatch.ProgramBinaryType, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpProgramGetBinaryType); failed {
		return dispatch.BinaryNone, res
	}
	_, np, ok := d.programNative(p)
	if !ok {
		return dispatch.BinaryNone, dispatch.ResultErrorInvalidProgram
	}
	nd, ok := d.nativeDeviceOf(dev)
	if !ok || !np.hasDevice(nd) {
		return dispatch.BinaryNone, dispatch.ResultErrorInvalidDevice
	}
	return np.states[nd], dispatch.ResultSuccess
}

func (d *Driver) ProgramGetBuildLog(p dispatch.ProgramHandle, dev dispatch.DeviceHandle) (string, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpProgramGetBuildLog); failed {
		return "", res
	}
	_, np, ok := d.programNative(p)
	if !ok {
		return "", dispatch.ResultErrorInvalidProgram
	}
	nd, ok := d.nativeDeviceOf(dev)
	if !ok || !np.hasDevice(nd) {
		return "", dispatch.ResultErrorInvalidDevice
	}
	return np.logs[nd], dispatch.ResultSuccess
}

func (d *Driver) ProgramCompileExp(p dispatch.ProgramHandle, devices []dispatch.DeviceHandle, options string) dispatch.Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpProgramCompileExp); failed {
		return res
	}
	if d.cfg.DisableExp {
		return dispatch.ResultErrorUnsupportedFeature
	}
	return d.compileExp(p, devices, dispatch.BinaryCompiledObject, options)
}

func (d *Driver) ProgramCompile(ctx dispatch.ContextHandle, p dispatch.ProgramHandle, options string) dispatch.Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpProgramCompile); failed {
		return res
	}
	return d.compileAll(ctx, p, dispatch.BinaryCompiledObject, options)
}

func (d *Driver) ProgramBuildExp(p dispatch.ProgramHandle, devices []dispatch.DeviceHandle, options string) dispatch.Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpProgramBuildExp); failed {
		return res
	}
	if d.cfg.DisableExp {
		return dispatch.ResultErrorUnsupportedFeature
	}
	return d.compileExp(p, devices, dispatch.BinaryExecutable, options)
}

func (d *Driver) ProgramBuild(ctx dispatch.ContextHandle, p dispatch.ProgramHandle, options string) dispatch.Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpProgramBuild); failed {
		return res
	}
	return d.compileAll(ctx, p, dispatch.BinaryExecutable, options)
}

func (d *Driver) compileExp(p dispatch.ProgramHandle, devices []dispatch.DeviceHandle, target dispatch.ProgramBinaryType, options string) dispatch.Result {
	_, np, ok := d.programNative(p)
	if !ok {
		return dispatch.ResultErrorInvalidProgram
	}
	if len(devices) == 0 {
		return dispatch.ResultErrorInvalidValue
	}
	devs := make([]resource.Handle, len(devices))
	for i, dev := range devices {
		nd, ok := d.nativeDeviceOf(dev)
		if !ok || !np.hasDevice(nd) {
			return dispatch.ResultErrorInvalidDevice
		}
		devs[i] = nd
	}
	return d.compileOn(np, devs, target, options)
}

func (d *Driver) compileAll(ctx dispatch.ContextHandle, p dispatch.ProgramHandle, target dispatch.ProgramBinaryType, options string) dispatch.Result {
	_, np, ok := d.programNative(p)
	if !ok {
		return dispatch.ResultErrorInvalidProgram
	}
	nctx, _, ok := d.contextNative(ctx)
	if !ok || nctx != np.context {
		return dispatch.ResultErrorInvalidContext
	}
	return d.compileOn(np, np.devices, target, options)
}

// compileOn moves devs of np from BinaryNone to target. The wasm binary is
// validated and compiled by wazero once per program.
func (d *Driver) compileOn(np *nativeProgram, devs []resource.Handle, target dispatch.ProgramBinaryType, options string) dispatch.Result {
	for _, nd := range devs {
		if np.states[nd] != dispatch.BinaryNone {
			return dispatch.ResultErrorInvalidOperation
		}
	}

	if np.compiled == nil {
		cm, err := d.runtime.CompileModule(context.Background(), np.binary)
		if err != nil {
			for _, nd := range devs {
				np.logs[nd] = err.Error()
			}
			Logger().Debug("program compile failed", zap.Error(err))
			return dispatch.ResultErrorProgramBuildFailure
		}
		np.compiled = cm
	}

	for _, nd := range devs {
		np.states[nd] = target
		np.logs[nd] = ""
	}
	np.options = options
	return dispatch.ResultSuccess
}

func (d *Driver) ProgramLinkExp(ctx dispatch.ContextHandle, devices []dispatch.DeviceHandle, inputs []dispatch.ProgramHandle, options string) (dispatch.ProgramHandle, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpProgramLinkExp); failed {
		return 0, res
	}
	if d.cfg.DisableExp {
		return 0, dispatch.ResultErrorUnsupportedFeature
	}
	if len(devices) == 0 {
		return 0, dispatch.ResultErrorInvalidValue
	}
	devs := make([]resource.Handle, len(devices))
	for i, dev := range devices {
		nd, ok := d.nativeDeviceOf(dev)
		if !ok {
			return 0, dispatch.ResultErrorInvalidDevice
		}
		devs[i] = nd
	}
	return d.link(ctx, devs, inputs, options)
}

func (d *Driver) ProgramLink(ctx dispatch.ContextHandle, inputs []dispatch.ProgramHandle, options string) (dispatch.ProgramHandle, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpProgramLink); failed {
		return 0, res
	}
	return d.link(ctx, nil, inputs, options)
}

// link creates a new program from inputs. devs nil links every device of the
// first input. Linked devices become executable; other devices keep the state
// they have in the first input. The first input provides the module.
func (d *Driver) link(ctx dispatch.ContextHandle, devs []resource.Handle, inputs []dispatch.ProgramHandle, options string) (dispatch.ProgramHandle, dispatch.Result) {
	if len(inputs) == 0 {
		return 0, dispatch.ResultErrorInvalidValue
	}
	nctx, _, ok := d.contextNative(ctx)
	if !ok {
		return 0, dispatch.ResultErrorInvalidContext
	}

	progs := make([]*nativeProgram, len(inputs))
	for i, in := range inputs {
		_, np, ok := d.programNative(in)
		if !ok {
			return 0, dispatch.ResultErrorInvalidProgram
		}
		if np.context != nctx {
			return 0, dispatch.ResultErrorInvalidContext
		}
		progs[i] = np
	}
	first := progs[0]
	if devs == nil {
		devs = first.devices
	}

	for _, np := range progs {
		for _, nd := range devs {
			if !np.hasDevice(nd) {
				return 0, dispatch.ResultErrorInvalidDevice
			}
			switch np.states[nd] {
			case dispatch.BinaryCompiledObject, dispatch.BinaryLibrary:
			default:
				np.logs[nd] = "input is not a compiled object or library: " + np.states[nd].String()
				return 0, dispatch.ResultErrorProgramLinkFailure
			}
		}
	}

	cm, err := d.runtime.CompileModule(context.Background(), first.binary)
	if err != nil {
		for _, nd := range devs {
			first.logs[nd] = err.Error()
		}
		return 0, dispatch.ResultErrorProgramLinkFailure
	}

	linked := &nativeProgram{
		compiled: cm,
		binary:   first.binary,
		context:  nctx,
		devices:  first.devices,
		options:  options,
		states:   maps.Clone(first.states),
		logs:     make(map[resource.Handle]string, len(first.devices)),
	}
	for _, nd := range devs {
		linked.states[nd] = dispatch.BinaryExecutable
	}

	native := d.native.Insert(typeProgram, linked, 1)
	_, h := d.wrap(typeProgram, native, true, 1)

	Logger().Debug("program linked",
		zap.Int("inputs", len(inputs)),
		zap.Int("devices", len(devs)),
		zap.Uint32("native", uint32(native)))
	return dispatch.ProgramHandle(h), dispatch.ResultSuccess
}
