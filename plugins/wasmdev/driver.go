package wasmdev

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/backend"
	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/resource"
)

// Object type tags shared by the native and backend tables.
const (
	typePlatform resource.TypeID = iota + 1
	typeDevice
	typeContext
	typeQueue
	typeEvent
	typeProgram
	typeKernel
	typeMem
)

// Driver is a simulated backend. It plays both sides of an import: the native
// driver a caller obtains handles from (Native* methods) and the dispatch
// Plugin the interop layer calls into.
//
// Native objects and backend objects live in separate refcounted tables.
// Native handles and backend handles are table handles of the respective table.
type Driver struct {
	runtime  wazero.Runtime
	native   *resource.Table
	objects  *resource.Table
	devices  map[resource.Handle]dispatch.DeviceHandle
	failures map[string][]dispatch.Result
	calls    []string
	cfg      Config

	nativePlatform resource.Handle
	nativeDevices  []resource.Handle
	platform       dispatch.PlatformHandle

	nativeDestroyed atomic.Int64
	mu              sync.Mutex
}

var _ dispatch.Plugin = (*Driver)(nil)

// New creates a driver with one platform and cfg.Devices devices.
func New(ctx context.Context, cfg Config) (*Driver, error) {
	cfg = cfg.withDefaults()

	rtCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		rtCfg = rtCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	cache := cfg.CompilationCache
	if cache == nil {
		cache = wazero.NewCompilationCache()
	}
	rtCfg = rtCfg.WithCompilationCache(cache)

	d := &Driver{
		runtime:  wazero.NewRuntimeWithConfig(ctx, rtCfg),
		native:   resource.NewTable(),
		objects:  resource.NewTable(),
		devices:  make(map[resource.Handle]dispatch.DeviceHandle),
		failures: make(map[string][]dispatch.Result),
		cfg:      cfg,
	}
	d.native.Subscribe(resource.ObserverFunc(func(e resource.Event) {
		if e.Type == resource.EventDestroyed {
			d.nativeDestroyed.Add(1)
		}
	}))

	d.nativePlatform = d.native.Insert(typePlatform, &nativePlatform{}, 1)
	for i := 0; i < cfg.Devices; i++ {
		d.nativeDevices = append(d.nativeDevices, d.native.Insert(typeDevice, &nativeDevice{index: i}, 1))
	}

	Logger().Debug("driver created",
		zap.Stringer("backend", cfg.Kind),
		zap.Int("devices", cfg.Devices),
		zap.Bool("exp", !cfg.DisableExp))

	return d, nil
}

// Close releases the wazero runtime and every object of both tables.
func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.objects.Close()
	d.native.Close()
	return d.runtime.Close(ctx)
}

// Backend returns the family the driver impersonates.
func (d *Driver) Backend() backend.Kind { return d.cfg.Kind }

// Calls returns the entry points invoked so far, in order.
func (d *Driver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// CountCalls returns how many times op was invoked.
func (d *Driver) CountCalls(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, c := range d.calls {
		if c == op {
			n++
		}
	}
	return n
}

// ResetCalls clears the call trace.
func (d *Driver) ResetCalls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}

// FailNext makes the next call of op return res without side effects.
// Repeated calls queue further failures.
func (d *Driver) FailNext(op string, res dispatch.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[op] = append(d.failures[op], res)
}

// enter records a call of op and reports an injected failure, if any.
// Callers hold d.mu.
func (d *Driver) enter(op string) (dispatch.Result, bool) {
	d.calls = append(d.calls, op)
	q := d.failures[op]
	if len(q) == 0 {
		return dispatch.ResultSuccess, false
	}
	res := q[0]
	d.failures[op] = q[1:]
	Logger().Debug("injected failure", zap.String("op", op), zap.Stringer("result", res))
	return res, true
}

// backendObject is an object of the backend table wrapping a native object.
type backendObject struct {
	release    func()
	native     resource.Handle
	device     resource.Handle
	flags      dispatch.QueueFlags
	nativeDesc int32
	ownsNative bool
}

// Drop releases the wrapped native object when the backend object owns it.
func (o *backendObject) Drop() {
	if o.ownsNative && o.release != nil {
		o.release()
	}
}

func toHandle(h uint64) resource.Handle {
	if h > math.MaxUint32 {
		return 0
	}
	return resource.Handle(h)
}

func (d *Driver) nativeValue(h xpuinterop.NativeHandle, t resource.TypeID) (any, bool) {
	return d.native.GetTyped(toHandle(uint64(h)), t)
}

func (d *Driver) object(h uint64, t resource.TypeID) (*backendObject, bool) {
	v, ok := d.objects.GetTyped(toHandle(h), t)
	if !ok {
		return nil, false
	}
	return v.(*backendObject), true
}

// wrap creates a backend object for native. refs is the backend object's
// initial reference count.
func (d *Driver) wrap(t resource.TypeID, native resource.Handle, owned bool, refs uint32) (*backendObject, resource.Handle) {
	obj := &backendObject{native: native, ownsNative: owned}
	obj.release = func() { d.native.Release(native) }
	h := d.objects.Insert(t, obj, refs)
	return obj, h
}

// importRefs returns the initial reference count of a backend event, program
// or kernel created from a native handle.
func (d *Driver) importRefs() uint32 {
	if d.cfg.importTakesReference() {
		return 1
	}
	return 0
}

func (d *Driver) retain(h uint64, t resource.TypeID, invalid dispatch.Result) dispatch.Result {
	if _, ok := d.object(h, t); !ok {
		return invalid
	}
	if !d.objects.Retain(toHandle(h)) {
		return invalid
	}
	return dispatch.ResultSuccess
}

func (d *Driver) release(h uint64, t resource.TypeID, invalid dispatch.Result) dispatch.Result {
	if _, ok := d.object(h, t); !ok {
		return invalid
	}
	if _, _, ok := d.objects.Release(toHandle(h)); !ok {
		return invalid
	}
	return dispatch.ResultSuccess
}

// Stats is a snapshot of object counts.
type Stats struct {
	NativeLive      int
	NativeDestroyed int64
	BackendLive     int
}

// Stats returns current object counts.
func (d *Driver) Stats() Stats {
	return Stats{
		NativeLive:      d.native.Len(),
		NativeDestroyed: d.nativeDestroyed.Load(),
		BackendLive:     d.objects.Len(),
	}
}
