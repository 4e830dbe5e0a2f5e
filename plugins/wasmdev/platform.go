package wasmdev

import (
	"slices"

	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/backend"
	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/resource"
)

// platformObject returns the backend platform, creating it on first use.
// Callers hold d.mu.
func (d *Driver) platformObject() dispatch.PlatformHandle {
	if d.platform == 0 {
		_, h := d.wrap(typePlatform, d.nativePlatform, false, 1)
		d.platform = dispatch.PlatformHandle(h)
	}
	return d.platform
}

// deviceObject returns the backend device for a native device. Root devices
// are created once and live as long as the driver. Callers hold d.mu.
func (d *Driver) deviceObject(native resource.Handle) dispatch.DeviceHandle {
	if h, ok := d.devices[native]; ok {
		return h
	}
	_, h := d.wrap(typeDevice, native, false, 1)
	d.devices[native] = dispatch.DeviceHandle(h)
	return dispatch.DeviceHandle(h)
}

// nativeDeviceOf maps a backend device handle to its native device.
func (d *Driver) nativeDeviceOf(dev dispatch.DeviceHandle) (resource.Handle, bool) {
	obj, ok := d.object(uint64(dev), typeDevice)
	if !ok {
		return 0, false
	}
	return obj.native, true
}

func (d *Driver) PlatformCreateWithNativeHandle(native xpuinterop.NativeHandle) (dispatch.PlatformHandle, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpPlatformCreateWithNativeHandle); failed {
		return 0, res
	}
	if resource.Handle(native) != d.nativePlatform {
		return 0, dispatch.ResultErrorInvalidNativeHandle
	}
	return d.platformObject(), dispatch.ResultSuccess
}

func (d *Driver) PlatformGetBackend(p dispatch.PlatformHandle) (dispatch.PlatformTag, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpPlatformGetBackend); failed {
		return dispatch.TagUnknown, res
	}
	if _, ok := d.object(uint64(p), typePlatform); !ok {
		return dispatch.TagUnknown, dispatch.ResultErrorInvalidPlatform
	}
	return backend.PlatformTagOf(d.cfg.Kind), dispatch.ResultSuccess
}

func (d *Driver) PlatformGetNativeHandle(p dispatch.PlatformHandle) (xpuinterop.NativeHandle, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpPlatformGetNativeHandle); failed {
		return 0, res
	}
	obj, ok := d.object(uint64(p), typePlatform)
	if !ok {
		return 0, dispatch.ResultErrorInvalidPlatform
	}
	return xpuinterop.NativeHandle(obj.native), dispatch.ResultSuccess
}

func (d *Driver) DeviceCreateWithNativeHandle(native xpuinterop.NativeHandle, p dispatch.PlatformHandle) (dispatch.DeviceHandle, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpDeviceCreateWithNativeHandle); failed {
		return 0, res
	}
	if p != 0 && p != d.platform {
		return 0, dispatch.ResultErrorInvalidPlatform
	}
	if _, ok := d.nativeValue(native, typeDevice); !ok {
		return 0, dispatch.ResultErrorInvalidNativeHandle
	}
	return d.deviceObject(resource.Handle(native)), dispatch.ResultSuccess
}

func (d *Driver) DeviceGetPlatform(dev dispatch.DeviceHandle) (dispatch.PlatformHandle, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpDeviceGetPlatform); failed {
		return 0, res
	}
	if _, ok := d.object(uint64(dev), typeDevice); !ok {
		return 0, dispatch.ResultErrorInvalidDevice
	}
	return d.platformObject(), dispatch.ResultSuccess
}

func (d *Driver) DeviceGetNativeHandle(dev dispatch.DeviceHandle) (xpuinterop.NativeHandle, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpDeviceGetNativeHandle); failed {
		return 0, res
	}
	native, ok := d.nativeDeviceOf(dev)
	if !ok {
		return 0, dispatch.ResultErrorInvalidDevice
	}
	return xpuinterop.NativeHandle(native), dispatch.ResultSuccess
}

// DeviceRelease is a no-op on root devices.
func (d *Driver) DeviceRelease(dev dispatch.DeviceHandle) dispatch.Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpDeviceRelease); failed {
		return res
	}
	if _, ok := d.object(uint64(dev), typeDevice); !ok {
		return dispatch.ResultErrorInvalidDevice
	}
	return dispatch.ResultSuccess
}

func (d *Driver) ContextCreateWithNativeHandle(native xpuinterop.NativeHandle, devices []dispatch.DeviceHandle, props *dispatch.NativeProperties) (dispatch.ContextHandle, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpContextCreateWithNativeHandle); failed {
		return 0, res
	}
	v, ok := d.nativeValue(native, typeContext)
	if !ok {
		return 0, dispatch.ResultErrorInvalidNativeHandle
	}
	nc := v.(*nativeContext)
	for _, dev := range devices {
		nd, ok := d.nativeDeviceOf(dev)
		if !ok || !slices.Contains(nc.devices, nd) {
			return 0, dispatch.ResultErrorInvalidDevice
		}
	}

	_, h := d.wrap(typeContext, resource.Handle(native), props != nil && props.IsNativeHandleOwned, 1)
	return dispatch.ContextHandle(h), dispatch.ResultSuccess
}

func (d *Driver) ContextGetNativeHandle(c dispatch.ContextHandle) (xpuinterop.NativeHandle, dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpContextGetNativeHandle); failed {
		return 0, res
	}
	obj, ok := d.object(uint64(c), typeContext)
	if !ok {
		return 0, dispatch.ResultErrorInvalidContext
	}
	return xpuinterop.NativeHandle(obj.native), dispatch.ResultSuccess
}

func (d *Driver) ContextRelease(c dispatch.ContextHandle) dispatch.Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res, failed := d.enter(dispatch.OpContextRelease); failed {
		return res
	}
	return d.release(uint64(c), typeContext, dispatch.ResultErrorInvalidContext)
}

// contextNative maps a backend context handle to its native context.
func (d *Driver) contextNative(c dispatch.ContextHandle) (resource.Handle, *nativeContext, bool) {
	obj, ok := d.object(uint64(c), typeContext)
	if !ok {
		return 0, nil, false
	}
	v, ok := d.native.GetTyped(obj.native, typeContext)
	if !ok {
		return 0, nil, false
	}
	return obj.native, v.(*nativeContext), true
}
