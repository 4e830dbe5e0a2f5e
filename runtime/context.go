package runtime

import (
	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/backend"
	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/errors"
)

// AsyncHandler receives errors reported asynchronously for a context.
type AsyncHandler func([]error)

// Context is a managed backend context.
type Context struct {
	refCounted
	plugin  dispatch.Plugin
	handler AsyncHandler
	devices []*Device
	handle  dispatch.ContextHandle
	kind    backend.Kind
}

// NewContext wraps a freshly imported backend context.
func NewContext(plugin dispatch.Plugin, kind backend.Kind, handle dispatch.ContextHandle, devices []*Device, ownership xpuinterop.Ownership, handler AsyncHandler) *Context {
	c := &Context{
		plugin:  plugin,
		handle:  handle,
		kind:    kind,
		devices: devices,
		handler: handler,
	}
	c.init("context", ownership, dispatch.OpContextRelease, func() dispatch.Result {
		return plugin.ContextRelease(handle)
	})
	return c
}

// Handle returns the backend context handle.
func (c *Context) Handle() dispatch.ContextHandle { return c.handle }

// Plugin returns the call table the context was imported through.
func (c *Context) Plugin() dispatch.Plugin { return c.plugin }

// Backend returns the backend family of the context.
func (c *Context) Backend() backend.Kind { return c.kind }

// Devices returns the devices the context was created for.
func (c *Context) Devices() []*Device { return c.devices }

// DeviceHandles returns the backend handles of Devices.
func (c *Context) DeviceHandles() []dispatch.DeviceHandle { return deviceHandles(c.devices) }

// ReportAsync hands errs to the context's async handler. Without a handler
// the errors are dropped.
func (c *Context) ReportAsync(errs []error) {
	if c.handler != nil && len(errs) > 0 {
		c.handler(errs)
	}
}

// Native returns the native context handle.
func (c *Context) Native() (xpuinterop.NativeHandle, error) {
	h, res := c.plugin.ContextGetNativeHandle(c.handle)
	if err := dispatch.Check(res, errors.PhaseInterop, dispatch.OpContextGetNativeHandle); err != nil {
		return 0, err
	}
	return h, nil
}
