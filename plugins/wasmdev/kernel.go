package wasmdev

import (
	"context"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/backend"
	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/errors"
	"github.com/wippyai/xpu-interop/resource"
)

func (d *Driver) KernelCreateWithNativeHandle(native xpuinterop.NativeHandle, ctx dispatch.ContextHandle, program dispatch.ProgramHandle, props *dispatch.NativeProperties) (dispatch.KernelHandle, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpKernelCreateWithNativeHandle); failed {
		return 0, res
	}
	v, ok := d.nativeValue(native, typeKernel)
	if !ok {
		return 0, dispatch.ResultErrorInvalidNativeHandle
	}
	nk := v.(*nativeKernel)

	nctx, _, ok := d.contextNative(ctx)
	if !ok {
		return 0, dispatch.ResultErrorInvalidContext
	}

	if program == 0 {
		if backend.Capabilities(d.cfg.Kind).KernelNeedsProgram {
			return 0, dispatch.ResultErrorInvalidProgram
		}
	} else {
		_, np, ok := d.programNative(program)
		if !ok || np.context != nctx {
			return 0, dispatch.ResultErrorInvalidProgram
		}
		if !exports(np.compiled, nk.name) {
			return 0, dispatch.ResultErrorInvalidKernelName
		}
	}

	_, h := d.wrap(typeKernel, resource.Handle(native), props != nil && props.IsNativeHandleOwned, d.importRefs())
	return dispatch.KernelHandle(h), dispatch.ResultSuccess
}

func (d *Driver) KernelGetNativeHandle(k dispatch.KernelHandle) (xpuinterop.NativeHandle, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpKernelGetNativeHandle); failed {
		return 0, res
	}
	obj, ok := d.object(uint64(k), typeKernel)
	if !ok {
		return 0, dispatch.ResultErrorInvalidKernel
	}
	return xpuinterop.NativeHandle(obj.native), dispatch.ResultSuccess
}

func (d *Driver) KernelRetain(k dispatch.KernelHandle) dispatch.Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpKernelRetain); failed {
		return res
	}
	return d.retain(uint64(k), typeKernel, dispatch.ResultErrorInvalidKernel)
}

func (d *Driver) KernelRelease(k dispatch.KernelHandle) dispatch.Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpKernelRelease); failed {
		return res
	}
	return d.release(uint64(k), typeKernel, dispatch.ResultErrorInvalidKernel)
}

// KernelName returns the exported function a native kernel runs.
func (d *Driver) KernelName(kernel xpuinterop.NativeHandle) (string, bool) {
	v, ok := d.nativeValue(kernel, typeKernel)
	if !ok {
		return "", false
	}
	return v.(*nativeKernel).name, true
}

// Run executes a native kernel by instantiating its program's module and
// calling the exported function with args. Each run gets a fresh instance.
func (d *Driver) Run(ctx context.Context, kernel xpuinterop.NativeHandle, args ...uint64) ([]uint64, error) {
	d.mu.Lock()
	v, ok := d.nativeValue(kernel, typeKernel)
	if !ok {
		d.mu.Unlock()
		return nil, nativeErr("Run", "invalid kernel %d", kernel)
	}
	nk := v.(*nativeKernel)
	pv, ok := d.native.GetTyped(nk.program, typeProgram)
	if !ok {
		d.mu.Unlock()
		return nil, nativeErr("Run", "program of kernel %d is gone", kernel)
	}
	cm := pv.(*nativeProgram).compiled
	d.mu.Unlock()

	if cm == nil {
		return nil, nativeErr("Run", "program of kernel %d is not built", kernel)
	}

	mod, err := d.runtime.InstantiateModule(ctx, cm, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, errors.New(errors.PhaseNative, errors.KindBackendCallFailed).
			Op("Run").
			Detail("instantiate").
			Cause(err).
			Build()
	}
	defer mod.Close(ctx)

	fn := mod.ExportedFunction(nk.name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseNative, "kernel", nk.name)
	}

	Logger().Debug("running kernel", zap.String("name", nk.name), zap.Int("args", len(args)))

	results, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, errors.New(errors.PhaseNative, errors.KindBackendCallFailed).
			Op("Run").
			Detail("kernel %q trapped", nk.name).
			Cause(err).
			Build()
	}
	return results, nil
}
