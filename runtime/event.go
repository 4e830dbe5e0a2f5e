package runtime

import (
	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/errors"
)

// Event is a managed backend event. It holds a reference to its context.
type Event struct {
	refCounted
	plugin dispatch.Plugin
	ctx    *Context
	handle dispatch.EventHandle
}

// NewEvent wraps a freshly imported backend event.
func NewEvent(handle dispatch.EventHandle, ctx *Context, ownership xpuinterop.Ownership) *Event {
	plugin := ctx.plugin
	e := &Event{plugin: plugin, handle: handle, ctx: ctx}
	ctx.Retain()
	e.init("event", ownership, dispatch.OpEventRelease, func() dispatch.Result {
		return plugin.EventRelease(handle)
	})
	e.onDestroy = ctx.Release
	return e
}

// Handle returns the backend event handle.
func (e *Event) Handle() dispatch.EventHandle { return e.handle }

// Context returns the event's context.
func (e *Event) Context() *Context { return e.ctx }

// Native returns the native event handle.
func (e *Event) Native() (xpuinterop.NativeHandle, error) {
	h, res := e.plugin.EventGetNativeHandle(e.handle)
	if err := dispatch.Check(res, errors.PhaseInterop, dispatch.OpEventGetNativeHandle); err != nil {
		return 0, err
	}
	return h, nil
}
