package runtime

import (
	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/errors"
)

// KernelID names a kernel contained in a device image.
type KernelID struct {
	Name string
}

// DeviceImage is one program image of a kernel bundle, built for a set of
// devices. Images of imported programs carry no kernel IDs: the binary may
// reference symbols that only resolve once joined with another bundle.
type DeviceImage struct {
	refCounted
	plugin    dispatch.Plugin
	ctx       *Context
	devices   []*Device
	kernelIDs []KernelID
	program   dispatch.ProgramHandle
	state     xpuinterop.BundleState
}

// NewDeviceImage wraps a backend program. ownership decides whether the
// program is released when the image is destroyed.
func NewDeviceImage(program dispatch.ProgramHandle, ctx *Context, devices []*Device, state xpuinterop.BundleState, kernelIDs []KernelID, ownership xpuinterop.Ownership) *DeviceImage {
	plugin := ctx.plugin
	img := &DeviceImage{
		plugin:    plugin,
		program:   program,
		ctx:       ctx,
		devices:   devices,
		state:     state,
		kernelIDs: kernelIDs,
	}
	ctx.Retain()
	img.init("device_image", ownership, dispatch.OpProgramRelease, func() dispatch.Result {
		return plugin.ProgramRelease(program)
	})
	img.onDestroy = ctx.Release
	return img
}

// Program returns the backend program handle.
func (i *DeviceImage) Program() dispatch.ProgramHandle { return i.program }

// State returns the bundle state the image was built to.
func (i *DeviceImage) State() xpuinterop.BundleState { return i.state }

// Devices returns the devices the image is built for.
func (i *DeviceImage) Devices() []*Device { return i.devices }

// KernelIDs returns the kernels known to be in the image.
func (i *DeviceImage) KernelIDs() []KernelID { return i.kernelIDs }

// Native returns the native program handle.
func (i *DeviceImage) Native() (xpuinterop.NativeHandle, error) {
	h, res := i.plugin.ProgramGetNativeHandle(i.program)
	if err := dispatch.Check(res, errors.PhaseInterop, dispatch.OpProgramGetNativeHandle); err != nil {
		return 0, err
	}
	return h, nil
}

// KernelBundle groups device images for a context and device set.
type KernelBundle struct {
	refCounted
	ctx     *Context
	devices []*Device
	images  []*DeviceImage
	state   xpuinterop.BundleState
}

// NewKernelBundle creates a bundle over images. The bundle takes over the
// caller's reference to each image.
func NewKernelBundle(ctx *Context, devices []*Device, state xpuinterop.BundleState, images ...*DeviceImage) *KernelBundle {
	kb := &KernelBundle{
		ctx:     ctx,
		devices: devices,
		images:  images,
		state:   state,
	}
	ctx.Retain()
	// The bundle itself has no backend object; its images do.
	kb.init("kernel_bundle", xpuinterop.NotOwned, "", nil)
	kb.onDestroy = func() error {
		var first error
		for _, img := range images {
			if err := img.Release(); err != nil && first == nil {
				first = err
			}
		}
		if err := ctx.Release(); err != nil && first == nil {
			first = err
		}
		return first
	}
	return kb
}

// NewEmptyInteropBundle returns an executable bundle with no images, used when
// a kernel is imported without a bundle.
func NewEmptyInteropBundle(ctx *Context) *KernelBundle {
	return NewKernelBundle(ctx, ctx.Devices(), xpuinterop.StateExecutable)
}

// Context returns the bundle's context.
func (kb *KernelBundle) Context() *Context { return kb.ctx }

// Devices returns the bundle's device set.
func (kb *KernelBundle) Devices() []*Device { return kb.devices }

// State returns the bundle state.
func (kb *KernelBundle) State() xpuinterop.BundleState { return kb.state }

// Images returns the bundle's device images.
func (kb *KernelBundle) Images() []*DeviceImage { return kb.images }

// Size returns the number of device images.
func (kb *KernelBundle) Size() int { return len(kb.images) }

// Ownership reports the ownership of the bundle's images. A bundle with no
// images reports NotOwned.
func (kb *KernelBundle) Ownership() xpuinterop.Ownership {
	if len(kb.images) == 0 {
		return xpuinterop.NotOwned
	}
	return kb.images[0].Ownership()
}
