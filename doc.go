// Package xpuinterop imports native objects from external accelerator backends
// into a managed runtime object model.
//
// A caller hands over a native handle obtained directly from a backend driver
// (an OpenCL cl_program, a Level Zero module, a CUDA context, ...) together with
// the backend family and an ownership flag. The library resolves the backend's
// call table, asks the backend to wrap the handle, and returns a managed object
// that releases the native resource on destruction only when the runtime owns it.
// Program handles additionally go through state reconciliation: each device's
// actual binary state is queried and the minimum compile, build or link call is
// issued to reach the requested bundle state.
//
// # Architecture Overview
//
//	xpuinterop/          Shared vocabulary: NativeHandle, Ownership, BundleState
//	├── backend/         Backend kinds, platform tag mapping, capability table, Resolver
//	├── dispatch/        Plugin call table, result codes, handle and property types
//	├── runtime/         Managed objects and the platform/device registry
//	├── importer/        Make* import operations and bundle state reconciliation
//	├── hosttask/        Native handle access from inside a host task
//	├── resource/        Refcounted typed handle tables
//	├── plugins/wasmdev/ Simulated backend whose programs are wasm binaries (wazero)
//	├── errors/          Structured error types
//	└── cmd/xpuimport/   CLI for importing a program and inspecting reconciliation
//
// # Quick Start
//
//	drv, _ := wasmdev.New(ctx, wasmdev.Config{Kind: backend.OpenCL, Devices: 2})
//	defer drv.Close(ctx)
//
//	res := backend.NewResolver(map[backend.Kind]dispatch.Plugin{backend.OpenCL: drv})
//	imp := importer.New(res, runtime.NewRegistry(), importer.Config{})
//
//	var devices []*runtime.Device
//	for _, nd := range drv.NativeDevices() {
//	    d, _ := imp.MakeDevice(nd, backend.OpenCL)
//	    devices = append(devices, d)
//	}
//
//	nctx, _ := drv.NativeContext()
//	ctxObj, _ := imp.MakeContext(nctx, backend.OpenCL, xpuinterop.NotOwned, nil, devices...)
//	defer ctxObj.Release()
//
//	prog, _ := drv.NativeProgram(nctx, wasmBytes, nil)
//	kb, err := imp.MakeKernelBundle(prog, ctxObj, xpuinterop.Owned, xpuinterop.StateExecutable, backend.OpenCL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer kb.Release()
//
// # Ownership
//
// Managed objects are reference counted with Retain and Release. When the last
// reference is released the backend release entry point is called only for
// objects imported with Owned. Ownership is fixed at construction.
//
// # Thread Safety
//
// Import operations are synchronous and may run concurrently on different
// handles. The Registry and Resolver are safe for concurrent use. A single
// backend program object must not be reconciled from two goroutines at once.
package xpuinterop
