// Package wasmdev is a simulated accelerator backend whose program binaries
// are WebAssembly modules.
//
// A Driver has one platform and a fixed number of devices. It exposes two
// faces:
//
//   - Native methods (NativeContext, NativeProgram, NativeKernel, ...) create
//     objects the way an application would through a vendor API, before any
//     import takes place.
//   - The dispatch.Plugin methods are the call table the interop layer uses to
//     wrap those native handles.
//
// Program compilation is backed by wazero: compile and build validate and
// compile the module, and a failure leaves wazero's message in the build log.
// Run instantiates a built program and calls a kernel export.
//
// The driver impersonates one backend family, chosen by Config.Kind. The
// family decides the platform tag it reports and whether importing events,
// programs and kernels takes a reference (OpenCL does not). Setting
// Config.DisableExp makes the per-device compile, build and link entry points
// unsupported, which exercises the legacy fallback.
//
// Every Plugin call is recorded (Calls, CountCalls) and can be made to fail
// once with FailNext.
package wasmdev
