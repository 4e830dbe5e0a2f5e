package wasmdev

import (
	"context"
	"fmt"
	"slices"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/errors"
	"github.com/wippyai/xpu-interop/resource"
)

// Native objects. These are what a caller holds before an import.

type nativePlatform struct{}

type nativeDevice struct {
	index int
}

type nativeContext struct {
	devices []resource.Handle
}

type nativeQueue struct {
	context resource.Handle
	device  resource.Handle
	desc    int32
}

type nativeEvent struct {
	context resource.Handle
}

type nativeMem struct {
	data    []byte
	context resource.Handle
}

type nativeKernel struct {
	name    string
	program resource.Handle
}

// nativeProgram is a wasm binary with a binary type per device.
type nativeProgram struct {
	compiled wazero.CompiledModule
	states   map[resource.Handle]dispatch.ProgramBinaryType
	logs     map[resource.Handle]string
	binary   []byte
	devices  []resource.Handle
	options  string
	context  resource.Handle
}

// Drop closes the compiled module.
func (p *nativeProgram) Drop() {
	if p.compiled != nil {
		_ = p.compiled.Close(context.Background())
		p.compiled = nil
	}
}

func (p *nativeProgram) hasDevice(dev resource.Handle) bool {
	return slices.Contains(p.devices, dev)
}

func (p *nativeProgram) anyState(t dispatch.ProgramBinaryType) bool {
	for _, s := range p.states {
		if s == t {
			return true
		}
	}
	return false
}

// ProgramOptions describe a native program at creation.
type ProgramOptions struct {
	// Devices restricts the program to a subset of the context's devices.
	// Empty means every device of the context.
	Devices []xpuinterop.NativeHandle

	// States sets the initial binary type per device, aligned with Devices
	// (or with the context's devices when Devices is empty). Missing entries
	// are BinaryNone. Any non-None state compiles the binary immediately.
	States []dispatch.ProgramBinaryType

	// Options are recorded as if the program had been built with them.
	Options string
}

func nativeErr(op, detail string, args ...any) error {
	return errors.New(errors.PhaseNative, errors.KindInvalidInput).Op(op).Detail(detail, args...).Build()
}

// NativePlatform returns the driver's only platform.
func (d *Driver) NativePlatform() xpuinterop.NativeHandle {
	return xpuinterop.NativeHandle(d.nativePlatform)
}

// NativeDevice returns the native handle of device i.
func (d *Driver) NativeDevice(i int) (xpuinterop.NativeHandle, error) {
	if i < 0 || i >= len(d.nativeDevices) {
		return 0, errors.NotFound(errors.PhaseNative, "device", fmt.Sprint(i))
	}
	return xpuinterop.NativeHandle(d.nativeDevices[i]), nil
}

// NativeDevices returns every device in index order.
func (d *Driver) NativeDevices() []xpuinterop.NativeHandle {
	out := make([]xpuinterop.NativeHandle, len(d.nativeDevices))
	for i, h := range d.nativeDevices {
		out[i] = xpuinterop.NativeHandle(h)
	}
	return out
}

func (d *Driver) deviceList(op string, devices []xpuinterop.NativeHandle) ([]resource.Handle, error) {
	out := make([]resource.Handle, 0, len(devices))
	for _, nd := range devices {
		if _, ok := d.nativeValue(nd, typeDevice); !ok {
			return nil, nativeErr(op, "invalid device %d", nd)
		}
		out = append(out, resource.Handle(nd))
	}
	return out, nil
}

// NativeContext creates a context over devices, or over every device when
// none are given.
func (d *Driver) NativeContext(devices ...xpuinterop.NativeHandle) (xpuinterop.NativeHandle, error) {
	devs := slices.Clone(d.nativeDevices)
	if len(devices) > 0 {
		var err error
		if devs, err = d.deviceList("NativeContext", devices); err != nil {
			return 0, err
		}
	}
	h := d.native.Insert(typeContext, &nativeContext{devices: devs}, 1)
	return xpuinterop.NativeHandle(h), nil
}

func (d *Driver) nativeCtx(op string, h xpuinterop.NativeHandle) (*nativeContext, error) {
	v, ok := d.nativeValue(h, typeContext)
	if !ok {
		return nil, nativeErr(op, "invalid context %d", h)
	}
	return v.(*nativeContext), nil
}

// NativeQueue creates a queue on device dev of context ctx. desc is the
// backend-specific descriptor reported back by QueueGetNativeHandle.
func (d *Driver) NativeQueue(ctx, dev xpuinterop.NativeHandle, desc int32) (xpuinterop.NativeHandle, error) {
	nc, err := d.nativeCtx("NativeQueue", ctx)
	if err != nil {
		return 0, err
	}
	if !slices.Contains(nc.devices, resource.Handle(dev)) {
		return 0, nativeErr("NativeQueue", "device %d is not in context %d", dev, ctx)
	}
	h := d.native.Insert(typeQueue, &nativeQueue{context: resource.Handle(ctx), device: resource.Handle(dev), desc: desc}, 1)
	return xpuinterop.NativeHandle(h), nil
}

// NativeEvent creates an event on ctx.
func (d *Driver) NativeEvent(ctx xpuinterop.NativeHandle) (xpuinterop.NativeHandle, error) {
	if _, err := d.nativeCtx("NativeEvent", ctx); err != nil {
		return 0, err
	}
	h := d.native.Insert(typeEvent, &nativeEvent{context: resource.Handle(ctx)}, 1)
	return xpuinterop.NativeHandle(h), nil
}

// NativeMem allocates size bytes on ctx.
func (d *Driver) NativeMem(ctx xpuinterop.NativeHandle, size int) (xpuinterop.NativeHandle, error) {
	if _, err := d.nativeCtx("NativeMem", ctx); err != nil {
		return 0, err
	}
	if size < 0 {
		return 0, nativeErr("NativeMem", "negative size %d", size)
	}
	h := d.native.Insert(typeMem, &nativeMem{context: resource.Handle(ctx), data: make([]byte, size)}, 1)
	return xpuinterop.NativeHandle(h), nil
}

// NativeProgram creates a program from a wasm binary on ctx.
func (d *Driver) NativeProgram(ctx xpuinterop.NativeHandle, binary []byte, opts *ProgramOptions) (xpuinterop.NativeHandle, error) {
	nc, err := d.nativeCtx("NativeProgram", ctx)
	if err != nil {
		return 0, err
	}
	if opts == nil {
		opts = &ProgramOptions{}
	}

	devs := slices.Clone(nc.devices)
	if len(opts.Devices) > 0 {
		if devs, err = d.deviceList("NativeProgram", opts.Devices); err != nil {
			return 0, err
		}
		for _, dev := range devs {
			if !slices.Contains(nc.devices, dev) {
				return 0, nativeErr("NativeProgram", "device %d is not in context %d", dev, ctx)
			}
		}
	}
	if len(opts.States) > len(devs) {
		return 0, nativeErr("NativeProgram", "%d states for %d devices", len(opts.States), len(devs))
	}

	p := &nativeProgram{
		binary:  slices.Clone(binary),
		context: resource.Handle(ctx),
		devices: devs,
		options: opts.Options,
		states:  make(map[resource.Handle]dispatch.ProgramBinaryType, len(devs)),
		logs:    make(map[resource.Handle]string, len(devs)),
	}
	for i, dev := range devs {
		p.states[dev] = dispatch.BinaryNone
		if i < len(opts.States) {
			p.states[dev] = opts.States[i]
		}
	}
	if p.anyState(dispatch.BinaryCompiledObject) || p.anyState(dispatch.BinaryLibrary) || p.anyState(dispatch.BinaryExecutable) {
		if p.compiled, err = d.runtime.CompileModule(context.Background(), p.binary); err != nil {
			return 0, errors.New(errors.PhaseNative, errors.KindBuildFailed).Op("NativeProgram").Cause(err).Build()
		}
	}

	h := d.native.Insert(typeProgram, p, 1)
	Logger().Debug("native program created",
		zap.Uint32("handle", uint32(h)),
		zap.Int("devices", len(devs)),
		zap.Int("bytes", len(binary)))
	return xpuinterop.NativeHandle(h), nil
}

// NativeKernel creates a kernel for an exported function of a program that
// is executable on at least one device.
func (d *Driver) NativeKernel(program xpuinterop.NativeHandle, name string) (xpuinterop.NativeHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.nativeValue(program, typeProgram)
	if !ok {
		return 0, nativeErr("NativeKernel", "invalid program %d", program)
	}
	p := v.(*nativeProgram)
	if !p.anyState(dispatch.BinaryExecutable) {
		return 0, nativeErr("NativeKernel", "program %d is not built", program)
	}
	if !exports(p.compiled, name) {
		return 0, errors.NotFound(errors.PhaseNative, "kernel", name)
	}
	h := d.native.Insert(typeKernel, &nativeKernel{name: name, program: resource.Handle(program)}, 1)
	return xpuinterop.NativeHandle(h), nil
}

// NativeBinaryType reports the binary type of program on dev.
func (d *Driver) NativeBinaryType(program, dev xpuinterop.NativeHandle) (dispatch.ProgramBinaryType, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.nativeValue(program, typeProgram)
	if !ok {
		return dispatch.BinaryNone, false
	}
	s, ok := v.(*nativeProgram).states[resource.Handle(dev)]
	return s, ok
}

// ReleaseNative drops the caller's reference to a native object.
func (d *Driver) ReleaseNative(h xpuinterop.NativeHandle) error {
	if _, _, ok := d.native.Release(toHandle(uint64(h))); !ok {
		return nativeErr("ReleaseNative", "invalid handle %d", h)
	}
	return nil
}

// RetainNative adds a caller reference to a native object.
func (d *Driver) RetainNative(h xpuinterop.NativeHandle) error {
	if !d.native.Retain(toHandle(uint64(h))) {
		return nativeErr("RetainNative", "invalid handle %d", h)
	}
	return nil
}

// NativeAlive reports whether a native object still exists.
func (d *Driver) NativeAlive(h xpuinterop.NativeHandle) bool {
	_, ok := d.native.Get(toHandle(uint64(h)))
	return ok
}

// NativeRefs returns the reference count of a native object.
func (d *Driver) NativeRefs(h xpuinterop.NativeHandle) (uint32, bool) {
	return d.native.Refs(toHandle(uint64(h)))
}

func exports(cm wazero.CompiledModule, name string) bool {
	if cm == nil {
		return false
	}
	_, ok := cm.ExportedFunctions()[name]
	return ok
}
