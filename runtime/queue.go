package runtime

import (
	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/backend"
	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/errors"
)

// Queue is a managed backend queue. It holds a reference to its context.
type Queue struct {
	refCounted
	plugin dispatch.Plugin
	ctx    *Context
	device *Device
	props  QueueProperties
	handle dispatch.QueueHandle
}

// NewQueue wraps a freshly imported backend queue. device may be nil when the
// backend derived it from the native handle.
func NewQueue(handle dispatch.QueueHandle, ctx *Context, device *Device, props QueueProperties, ownership xpuinterop.Ownership) *Queue {
	plugin := ctx.plugin
	q := &Queue{
		plugin: plugin,
		handle: handle,
		ctx:    ctx,
		device: device,
		props:  props,
	}
	ctx.Retain()
	q.init("queue", ownership, dispatch.OpQueueRelease, func() dispatch.Result {
		return plugin.QueueRelease(handle)
	})
	q.onDestroy = ctx.Release
	return q
}

// Handle returns the backend queue handle.
func (q *Queue) Handle() dispatch.QueueHandle { return q.handle }

// Context returns the queue's context.
func (q *Queue) Context() *Context { return q.ctx }

// Device returns the queue's device, or nil if it was not supplied at import.
func (q *Queue) Device() *Device { return q.device }

// Properties returns the property list the queue was imported with.
func (q *Queue) Properties() QueueProperties { return q.props }

// Backend returns the backend family of the queue.
func (q *Queue) Backend() backend.Kind { return q.ctx.kind }

// Native returns the native queue handle together with its native descriptor.
func (q *Queue) Native() (xpuinterop.NativeHandle, int32, error) {
	var desc dispatch.QueueNativeDesc
	h, res := q.plugin.QueueGetNativeHandle(q.handle, &desc)
	if err := dispatch.Check(res, errors.PhaseInterop, dispatch.OpQueueGetNativeHandle); err != nil {
		return 0, 0, err
	}
	return h, desc.NativeData, nil
}
