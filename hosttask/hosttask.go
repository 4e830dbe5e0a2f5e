package hosttask

import (
	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/backend"
	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/errors"
	"github.com/wippyai/xpu-interop/runtime"
)

// Requirement identifies a memory requirement of a host task. Requirements
// are compared by identity.
type Requirement struct {
	Name string
	Size int
}

// MemBinding associates a requirement with the backend memory object the
// memory engine allocated for it.
type MemBinding struct {
	Req *Requirement
	Mem dispatch.MemHandle
}

// Handle gives a host task access to the native handles behind the objects it
// was scheduled with. It never mutates them.
type Handle struct {
	queue    *runtime.Queue
	device   *runtime.Device
	ctx      *runtime.Context
	bindings []MemBinding
}

// New creates a handle for a host task bound to queue, device and context.
// bindings is the task's captured requirement table.
func New(queue *runtime.Queue, device *runtime.Device, ctx *runtime.Context, bindings []MemBinding) *Handle {
	return &Handle{
		queue:    queue,
		device:   device,
		ctx:      ctx,
		bindings: bindings,
	}
}

// NativeMem returns the native handle of the memory backing req on the
// task's device. A requirement the task was not scheduled with fails without
// calling the backend.
func (h *Handle) NativeMem(req *Requirement) (xpuinterop.NativeHandle, error) {
	for _, b := range h.bindings {
		if b.Req != req {
			continue
		}
		native, res := h.ctx.Plugin().MemGetNativeHandle(b.Mem, h.device.Handle())
		if !res.OK() {
			err := errors.BackendCallFailed(errors.PhaseInterop, dispatch.OpMemGetNativeHandle, int32(res))
			err.Object = "memory"
			err.Backend = h.ctx.Backend().String()
			err.Detail = res.String()
			return 0, err
		}
		return native, nil
	}

	name := "memory requirement"
	if req != nil && req.Name != "" {
		name = "memory requirement " + req.Name
	}
	return 0, errors.InvalidObjectReference(errors.PhaseInterop, name)
}

// NativeDevice returns the native handle of the task's device.
func (h *Handle) NativeDevice() (xpuinterop.NativeHandle, error) {
	return h.device.Native()
}

// NativeContext returns the native handle of the task's context.
func (h *Handle) NativeContext() (xpuinterop.NativeHandle, error) {
	return h.ctx.Native()
}

// NativeQueue returns the native handle of the task's queue and its native
// descriptor.
func (h *Handle) NativeQueue() (xpuinterop.NativeHandle, int32, error) {
	return h.queue.Native()
}

// Backend returns the backend family of the task's queue.
func (h *Handle) Backend() backend.Kind {
	return h.queue.Backend()
}
