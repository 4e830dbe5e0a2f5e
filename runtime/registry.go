package runtime

import (
	"sync"

	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/backend"
	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/errors"
)

// Registry deduplicates managed platforms and devices by backend handle.
// It is safe for concurrent use.
type Registry struct {
	platforms map[platformKey]*Platform
	order     []*Platform
	mu        sync.Mutex
}

type platformKey struct {
	plugin dispatch.Plugin
	handle dispatch.PlatformHandle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{platforms: make(map[platformKey]*Platform)}
}

// GetOrMakePlatform returns the managed platform for handle, creating it on
// first use. The platform's backend kind is read from the backend.
func (r *Registry) GetOrMakePlatform(plugin dispatch.Plugin, handle dispatch.PlatformHandle) (*Platform, error) {
	key := platformKey{plugin: plugin, handle: handle}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.platforms[key]; ok {
		return p, nil
	}

	tag, res := plugin.PlatformGetBackend(handle)
	if err := dispatch.Check(res, errors.PhaseImport, dispatch.OpPlatformGetBackend); err != nil {
		return nil, err
	}

	p := &Platform{
		plugin:  plugin,
		handle:  handle,
		kind:    backend.FromPlatformTag(tag),
		devices: make(map[dispatch.DeviceHandle]*Device),
	}
	r.platforms[key] = p
	r.order = append(r.order, p)
	return p, nil
}

// PlatformFromDevice resolves the platform that owns a backend device.
func (r *Registry) PlatformFromDevice(plugin dispatch.Plugin, dev dispatch.DeviceHandle) (*Platform, error) {
	ph, res := plugin.DeviceGetPlatform(dev)
	if err := dispatch.Check(res, errors.PhaseImport, dispatch.OpDeviceGetPlatform); err != nil {
		return nil, err
	}
	return r.GetOrMakePlatform(plugin, ph)
}

// DeviceFor resolves a backend device to its deduplicated managed Device.
func (r *Registry) DeviceFor(plugin dispatch.Plugin, dev dispatch.DeviceHandle) (*Device, error) {
	p, err := r.PlatformFromDevice(plugin, dev)
	if err != nil {
		return nil, err
	}
	return p.GetOrMakeDevice(dev), nil
}

// Platforms returns all known platforms in creation order.
func (r *Registry) Platforms() []*Platform {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Platform(nil), r.order...)
}

// Platform is a managed backend platform. Platforms live as long as their
// registry and are never released by the runtime.
type Platform struct {
	plugin  dispatch.Plugin
	devices map[dispatch.DeviceHandle]*Device
	order   []*Device
	handle  dispatch.PlatformHandle
	mu      sync.Mutex
	kind    backend.Kind
}

// Handle returns the backend platform handle.
func (p *Platform) Handle() dispatch.PlatformHandle { return p.handle }

// Plugin returns the call table the platform was imported through.
func (p *Platform) Plugin() dispatch.Plugin { return p.plugin }

// Backend returns the platform's backend family as reported by the backend.
func (p *Platform) Backend() backend.Kind { return p.kind }

// Ownership is always NotOwned for platforms.
func (p *Platform) Ownership() xpuinterop.Ownership { return xpuinterop.NotOwned }

// Native returns the native platform handle.
func (p *Platform) Native() (xpuinterop.NativeHandle, error) {
	h, res := p.plugin.PlatformGetNativeHandle(p.handle)
	if err := dispatch.Check(res, errors.PhaseInterop, dispatch.OpPlatformGetNativeHandle); err != nil {
		return 0, err
	}
	return h, nil
}

// GetOrMakeDevice returns the managed device for dev, creating it on first use.
func (p *Platform) GetOrMakeDevice(dev dispatch.DeviceHandle) *Device {
	p.mu.Lock()
	defer p.mu.Unlock()

	if d, ok := p.devices[dev]; ok {
		return d
	}
	d := &Device{plugin: p.plugin, handle: dev, platform: p}
	p.devices[dev] = d
	p.order = append(p.order, d)
	return d
}

// Devices returns the devices known on this platform in creation order.
func (p *Platform) Devices() []*Device {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Device(nil), p.order...)
}

// Device is a managed backend device. Like platforms, devices are owned by
// the registry and never released by the runtime.
type Device struct {
	plugin   dispatch.Plugin
	platform *Platform
	handle   dispatch.DeviceHandle
}

// Handle returns the backend device handle.
func (d *Device) Handle() dispatch.DeviceHandle { return d.handle }

// Platform returns the owning platform.
func (d *Device) Platform() *Platform { return d.platform }

// Backend returns the device's backend family.
func (d *Device) Backend() backend.Kind { return d.platform.kind }

// Ownership is always NotOwned for devices.
func (d *Device) Ownership() xpuinterop.Ownership { return xpuinterop.NotOwned }

// Native returns the native device handle.
func (d *Device) Native() (xpuinterop.NativeHandle, error) {
	h, res := d.plugin.DeviceGetNativeHandle(d.handle)
	if err := dispatch.Check(res, errors.PhaseInterop, dispatch.OpDeviceGetNativeHandle); err != nil {
		return 0, err
	}
	return h, nil
}

func deviceHandles(devs []*Device) []dispatch.DeviceHandle {
	out := make([]dispatch.DeviceHandle, len(devs))
	for i, d := range devs {
		out[i] = d.handle
	}
	return out
}
