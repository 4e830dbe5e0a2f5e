package importer

import (
	"go.uber.org/zap"

	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/backend"
	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/errors"
	"github.com/wippyai/xpu-interop/runtime"
)

// Resolver returns the call table of a backend family.
type Resolver interface {
	Resolve(k backend.Kind) (dispatch.Plugin, error)
}

// Importer turns native handles into managed runtime objects.
// It holds no mutable state of its own and is safe for concurrent use.
type Importer struct {
	resolver Resolver
	registry *runtime.Registry
	cfg      Config
}

// New creates an importer. A nil registry gets a private one.
func New(resolver Resolver, registry *runtime.Registry, cfg Config) *Importer {
	if registry == nil {
		registry = runtime.NewRegistry()
	}
	return &Importer{resolver: resolver, registry: registry, cfg: cfg}
}

// Registry returns the platform and device registry shared by all imports.
func (im *Importer) Registry() *runtime.Registry { return im.registry }

func (im *Importer) resolve(kind backend.Kind, object string) (dispatch.Plugin, error) {
	plugin, err := im.resolver.Resolve(kind)
	if err != nil {
		if e, ok := err.(*errors.Error); ok && e.Object == "" {
			e.Object = object
		}
		return nil, err
	}
	return plugin, nil
}

// callFailed turns a failed native result into a backend_call_failed error.
func callFailed(res dispatch.Result, op, object string, kind backend.Kind) error {
	return errors.New(errors.PhaseImport, errors.KindBackendCallFailed).
		Object(object).
		Op(op).
		Backend(kind.String()).
		Code(int32(res)).
		Detail("%s", res.String()).
		Build()
}

func nativeProps(ownership xpuinterop.Ownership) *dispatch.NativeProperties {
	return &dispatch.NativeProperties{IsNativeHandleOwned: ownership == xpuinterop.Owned}
}

// checkContext rejects a missing context or one imported through another family.
func checkContext(ctx *runtime.Context, kind backend.Kind, object string) error {
	if ctx == nil {
		return errors.New(errors.PhaseImport, errors.KindInvalidInput).
			Object(object).
			Detail("nil context").
			Build()
	}
	if ctx.Backend() != kind {
		return errors.New(errors.PhaseImport, errors.KindInvalidInput).
			Object(object).
			Backend(kind.String()).
			Detail("context belongs to backend %s", ctx.Backend()).
			Build()
	}
	return nil
}

// retainAfterImport applies the reference correction of families whose
// create-with-native-handle does not take a reference.
func retainAfterImport(kind backend.Kind, object, op string, retain func() dispatch.Result) error {
	if !backend.Capabilities(kind).RetainAfterImport {
		return nil
	}
	Logger().Debug("retain after import", zap.String("object", object), zap.Stringer("backend", kind))
	if res := retain(); !res.OK() {
		return callFailed(res, op, object, kind)
	}
	return nil
}

// MakePlatform imports a native platform. Platforms are never owned by the
// runtime and are deduplicated through the registry.
func (im *Importer) MakePlatform(native xpuinterop.NativeHandle, kind backend.Kind) (*runtime.Platform, error) {
	plugin, err := im.resolve(kind, "platform")
	if err != nil {
		return nil, err
	}
	ph, res := plugin.PlatformCreateWithNativeHandle(native)
	if !res.OK() {
		return nil, callFailed(res, dispatch.OpPlatformCreateWithNativeHandle, "platform", kind)
	}
	return im.registry.GetOrMakePlatform(plugin, ph)
}

// MakeDevice imports a native root device. Devices are never owned by the
// runtime and are deduplicated through their platform.
func (im *Importer) MakeDevice(native xpuinterop.NativeHandle, kind backend.Kind) (*runtime.Device, error) {
	plugin, err := im.resolve(kind, "device")
	if err != nil {
		return nil, err
	}
	dh, res := plugin.DeviceCreateWithNativeHandle(native, 0)
	if !res.OK() {
		return nil, callFailed(res, dispatch.OpDeviceCreateWithNativeHandle, "device", kind)
	}
	return im.registry.DeviceFor(plugin, dh)
}

// MakeContext imports a native context. devices, when given, are the devices
// the native context was created for; they are passed to the backend and
// become the context's device set.
func (im *Importer) MakeContext(native xpuinterop.NativeHandle, kind backend.Kind, ownership xpuinterop.Ownership, handler runtime.AsyncHandler, devices ...*runtime.Device) (*runtime.Context, error) {
	plugin, err := im.resolve(kind, "context")
	if err != nil {
		return nil, err
	}

	handles := make([]dispatch.DeviceHandle, len(devices))
	for i, d := range devices {
		if d == nil || d.Platform().Plugin() != plugin {
			return nil, errors.New(errors.PhaseImport, errors.KindInvalidInput).
				Object("context").
				Backend(kind.String()).
				Detail("device %d does not belong to backend %s", i, kind).
				Build()
		}
		handles[i] = d.Handle()
	}

	ch, res := plugin.ContextCreateWithNativeHandle(native, handles, nativeProps(ownership))
	if !res.OK() {
		return nil, callFailed(res, dispatch.OpContextCreateWithNativeHandle, "context", kind)
	}
	return runtime.NewContext(plugin, kind, ch, devices, ownership, handler), nil
}

// MakeQueue imports a native queue on ctx. dev may be nil when the backend
// can derive the device from the native handle. nativeDesc is forwarded to
// families that take a native queue descriptor.
func (im *Importer) MakeQueue(native xpuinterop.NativeHandle, nativeDesc int32, ctx *runtime.Context, dev *runtime.Device, ownership xpuinterop.Ownership, props runtime.QueueProperties, kind backend.Kind) (*runtime.Queue, error) {
	if props.ComputeIndex != nil {
		return nil, errors.New(errors.PhaseImport, errors.KindInvalidConfiguration).
			Object("queue").
			Backend(kind.String()).
			Value(*props.ComputeIndex).
			Detail("compute index cannot be applied to an imported queue").
			Build()
	}
	if err := checkContext(ctx, kind, "queue"); err != nil {
		return nil, err
	}
	plugin, err := im.resolve(kind, "queue")
	if err != nil {
		return nil, err
	}

	qprops := &dispatch.QueueProperties{Flags: runtime.QueueFlags(props, props.Order())}
	if encode := backend.Capabilities(kind).QueueNativeDesc; encode != nil {
		qprops.Next = encode(nativeDesc)
	}
	chain := &dispatch.QueueNativeProperties{
		Next:                qprops,
		IsNativeHandleOwned: ownership == xpuinterop.Owned,
	}

	var dh dispatch.DeviceHandle
	if dev != nil {
		dh = dev.Handle()
	}

	qh, res := plugin.QueueCreateWithNativeHandle(native, ctx.Handle(), dh, chain)
	if !res.OK() {
		return nil, callFailed(res, dispatch.OpQueueCreateWithNativeHandle, "queue", kind)
	}

	Logger().Debug("queue imported",
		zap.Stringer("backend", kind),
		zap.Stringer("order", props.Order()),
		zap.Stringer("ownership", ownership))

	return runtime.NewQueue(qh, ctx, dev, props, ownership), nil
}

// MakeEvent imports a native event on ctx.
func (im *Importer) MakeEvent(native xpuinterop.NativeHandle, ctx *runtime.Context, ownership xpuinterop.Ownership, kind backend.Kind) (*runtime.Event, error) {
	if err := checkContext(ctx, kind, "event"); err != nil {
		return nil, err
	}
	plugin, err := im.resolve(kind, "event")
	if err != nil {
		return nil, err
	}

	eh, res := plugin.EventCreateWithNativeHandle(native, ctx.Handle(), nativeProps(ownership))
	if !res.OK() {
		return nil, callFailed(res, dispatch.OpEventCreateWithNativeHandle, "event", kind)
	}
	if err := retainAfterImport(kind, "event", dispatch.OpEventRetain, func() dispatch.Result {
		return plugin.EventRetain(eh)
	}); err != nil {
		return nil, err
	}
	return runtime.NewEvent(eh, ctx, ownership), nil
}

// MakeKernel imports a native kernel on ctx. A nil bundle means the kernel
// gets an empty executable bundle of its own. Families that need the owning
// program take it from the bundle, which must then hold exactly one image.
func (im *Importer) MakeKernel(native xpuinterop.NativeHandle, ctx *runtime.Context, bundle *runtime.KernelBundle, ownership xpuinterop.Ownership, kind backend.Kind) (*runtime.Kernel, error) {
	if err := checkContext(ctx, kind, "kernel"); err != nil {
		return nil, err
	}
	plugin, err := im.resolve(kind, "kernel")
	if err != nil {
		return nil, err
	}

	if bundle == nil {
		bundle = runtime.NewEmptyInteropBundle(ctx)
		// The kernel takes its own reference below.
		defer bundle.Release()
	}

	var program dispatch.ProgramHandle
	if backend.Capabilities(kind).KernelNeedsProgram {
		if bundle.Size() != 1 {
			return nil, errors.New(errors.PhaseImport, errors.KindInvalidConfiguration).
				Object("kernel").
				Backend(kind.String()).
				Value(bundle.Size()).
				Detail("kernel bundle must contain exactly one device image, has %d", bundle.Size()).
				Build()
		}
		program = bundle.Images()[0].Program()
	}

	kh, res := plugin.KernelCreateWithNativeHandle(native, ctx.Handle(), program, nativeProps(ownership))
	if !res.OK() {
		return nil, callFailed(res, dispatch.OpKernelCreateWithNativeHandle, "kernel", kind)
	}
	if err := retainAfterImport(kind, "kernel", dispatch.OpKernelRetain, func() dispatch.Result {
		return plugin.KernelRetain(kh)
	}); err != nil {
		return nil, err
	}
	return runtime.NewKernel(kh, ctx, bundle, ownership), nil
}
