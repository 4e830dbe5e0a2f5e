package runtime

import (
	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/errors"
)

// Kernel is a managed backend kernel. It holds references to its context and
// kernel bundle.
type Kernel struct {
	refCounted
	plugin dispatch.Plugin
	ctx    *Context
	bundle *KernelBundle
	handle dispatch.KernelHandle
}

// NewKernel wraps a freshly imported backend kernel.
func NewKernel(handle dispatch.KernelHandle, ctx *Context, bundle *KernelBundle, ownership xpuinterop.Ownership) *Kernel {
	plugin := ctx.plugin
	k := &Kernel{plugin: plugin, handle: handle, ctx: ctx, bundle: bundle}
	ctx.Retain()
	bundle.Retain()
	k.init("kernel", ownership, dispatch.OpKernelRelease, func() dispatch.Result {
		return plugin.KernelRelease(handle)
	})
	k.onDestroy = func() error {
		berr := bundle.Release()
		if err := ctx.Release(); err != nil {
			return err
		}
		return berr
	}
	return k
}

// Handle returns the backend kernel handle.
func (k *Kernel) Handle() dispatch.KernelHandle { return k.handle }

// Context returns the kernel's context.
func (k *Kernel) Context() *Context { return k.ctx }

// Bundle returns the kernel bundle the kernel belongs to.
func (k *Kernel) Bundle() *KernelBundle { return k.bundle }

// Native returns the native kernel handle.
func (k *Kernel) Native() (xpuinterop.NativeHandle, error) {
	h, res := k.plugin.KernelGetNativeHandle(k.handle)
	if err := dispatch.Check(res, errors.PhaseInterop, dispatch.OpKernelGetNativeHandle); err != nil {
		return 0, err
	}
	return h, nil
}
