package wasmdev

import (
	"slices"

	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/errors"
	"github.com/wippyai/xpu-interop/resource"
)

func (d *Driver) QueueCreateWithNativeHandle(native xpuinterop.NativeHandle, ctx dispatch.ContextHandle, dev dispatch.DeviceHandle, props *dispatch.QueueNativeProperties) (dispatch.QueueHandle, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpQueueCreateWithNativeHandle); failed {
		return 0, res
	}
	v, ok := d.nativeValue(native, typeQueue)
	if !ok {
		return 0, dispatch.ResultErrorInvalidNativeHandle
	}
	nq := v.(*nativeQueue)

	nctx, _, ok := d.contextNative(ctx)
	if !ok {
		return 0, dispatch.ResultErrorInvalidContext
	}
	if nctx != nq.context {
		return 0, dispatch.ResultErrorInvalidContext
	}
	if dev != 0 {
		nd, ok := d.nativeDeviceOf(dev)
		if !ok || nd != nq.device {
			return 0, dispatch.ResultErrorInvalidDevice
		}
	}

	owned := false
	var flags dispatch.QueueFlags
	desc := nq.desc
	if props != nil {
		owned = props.IsNativeHandleOwned
		if props.Next != nil {
			flags = props.Next.Flags
			if props.Next.Next != nil {
				desc = props.Next.Next.NativeData
			}
		}
	}

	obj, h := d.wrap(typeQueue, resource.Handle(native), owned, 1)
	obj.device = nq.device
	obj.flags = flags
	obj.nativeDesc = desc
	return dispatch.QueueHandle(h), dispatch.ResultSuccess
}

func (d *Driver) QueueGetNativeHandle(q dispatch.QueueHandle, desc *dispatch.QueueNativeDesc) (xpuinterop.NativeHandle, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpQueueGetNativeHandle); failed {
		return 0, res
	}
	obj, ok := d.object(uint64(q), typeQueue)
	if !ok {
		return 0, dispatch.ResultErrorInvalidQueue
	}
	if desc != nil {
		desc.NativeData = obj.nativeDesc
	}
	return xpuinterop.NativeHandle(obj.native), dispatch.ResultSuccess
}

func (d *Driver) QueueRelease(q dispatch.QueueHandle) dispatch.Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpQueueRelease); failed {
		return res
	}
	return d.release(uint64(q), typeQueue, dispatch.ResultErrorInvalidQueue)
}

// QueueFlags returns the flags a backend queue was imported with.
func (d *Driver) QueueFlags(q dispatch.QueueHandle) (dispatch.QueueFlags, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	obj, ok := d.object(uint64(q), typeQueue)
	if !ok {
		return 0, false
	}
	return obj.flags, true
}

func (d *Driver) EventCreateWithNativeHandle(native xpuinterop.NativeHandle, ctx dispatch.ContextHandle, props *dispatch.NativeProperties) (dispatch.EventHandle, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpEventCreateWithNativeHandle); failed {
		return 0, res
	}
	v, ok := d.nativeValue(native, typeEvent)
	if !ok {
		return 0, dispatch.ResultErrorInvalidNativeHandle
	}
	nctx, _, ok := d.contextNative(ctx)
	if !ok || nctx != v.(*nativeEvent).context {
		return 0, dispatch.ResultErrorInvalidContext
	}

	_, h := d.wrap(typeEvent, resource.Handle(native), props != nil && props.IsNativeHandleOwned, d.importRefs())
	return dispatch.EventHandle(h), dispatch.ResultSuccess
}

func (d *Driver) EventGetNativeHandle(e dispatch.EventHandle) (xpuinterop.NativeHandle, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpEventGetNativeHandle); failed {
		return 0, res
	}
	obj, ok := d.object(uint64(e), typeEvent)
	if !ok {
		return 0, dispatch.ResultErrorInvalidEvent
	}
	return xpuinterop.NativeHandle(obj.native), dispatch.ResultSuccess
}

func (d *Driver) EventRetain(e dispatch.EventHandle) dispatch.Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpEventRetain); failed {
		return res
	}
	return d.retain(uint64(e), typeEvent, dispatch.ResultErrorInvalidEvent)
}

func (d *Driver) EventRelease(e dispatch.EventHandle) dispatch.Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpEventRelease); failed {
		return res
	}
	return d.release(uint64(e), typeEvent, dispatch.ResultErrorInvalidEvent)
}

// ImportMem wraps a native allocation in a backend memory object, the way
// a memory engine does when a buffer is created from native memory.
func (d *Driver) ImportMem(native xpuinterop.NativeHandle) (dispatch.MemHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.nativeValue(native, typeMem); !ok {
		return 0, nativeErr("ImportMem", "invalid memory %d", native)
	}
	_, h := d.wrap(typeMem, resource.Handle(native), false, 1)
	return dispatch.MemHandle(h), nil
}

// ReleaseMem destroys a backend memory object.
func (d *Driver) ReleaseMem(m dispatch.MemHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res := d.release(uint64(m), typeMem, dispatch.ResultErrorInvalidMemObject); !res.OK() {
		return dispatch.Check(res, errors.PhaseNative, "ReleaseMem")
	}
	return nil
}

func (d *Driver) MemGetNativeHandle(m dispatch.MemHandle, dev dispatch.DeviceHandle) (xpuinterop.NativeHandle, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpMemGetNativeHandle); failed {
		return 0, res
	}
	obj, ok := d.object(uint64(m), typeMem)
	if !ok {
		return 0, dispatch.ResultErrorInvalidMemObject
	}
	nd, ok := d.nativeDeviceOf(dev)
	if !ok {
		return 0, dispatch.ResultErrorInvalidDevice
	}
	v, ok := d.native.GetTyped(obj.native, typeMem)
	if !ok {
		return 0, dispatch.ResultErrorInvalidMemObject
	}
	nc, ok := d.native.GetTyped(v.(*nativeMem).context, typeContext)
	if !ok || !slices.Contains(nc.(*nativeContext).devices, nd) {
		return 0, dispatch.ResultErrorInvalidDevice
	}
	return xpuinterop.NativeHandle(obj.native), dispatch.ResultSuccess
}
