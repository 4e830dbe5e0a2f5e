package dispatch

import xpuinterop "github.com/wippyai/xpu-interop"

// Entry point names, used in errors, logs and call traces.
const (
	OpPlatformCreateWithNativeHandle = "PlatformCreateWithNativeHandle"
	OpPlatformGetBackend             = "PlatformGetBackend"
	OpPlatformGetNativeHandle        = "PlatformGetNativeHandle"
	OpDeviceCreateWithNativeHandle   = "DeviceCreateWithNativeHandle"
	OpDeviceGetPlatform              = "DeviceGetPlatform"
	OpDeviceGetNativeHandle          = "DeviceGetNativeHandle"
	OpDeviceRelease                  = "DeviceRelease"
	OpContextCreateWithNativeHandle  = "ContextCreateWithNativeHandle"
	OpContextGetNativeHandle         = "ContextGetNativeHandle"
	OpContextRelease                 = "ContextRelease"
	OpQueueCreateWithNativeHandle    = "QueueCreateWithNativeHandle"
	OpQueueGetNativeHandle           = "QueueGetNativeHandle"
	OpQueueRelease                   = "QueueRelease"
	OpEventCreateWithNativeHandle    = "EventCreateWithNativeHandle"
	OpEventGetNativeHandle           = "EventGetNativeHandle"
	OpEventRetain                    = "EventRetain"
	OpEventRelease                   = "EventRelease"
	OpProgramCreateWithNativeHandle  = "ProgramCreateWithNativeHandle"
	OpProgramGetNativeHandle         = "ProgramGetNativeHandle"
	OpProgramRetain                  = "ProgramRetain"
	OpProgramRelease                 = "ProgramRelease"
	OpProgramGetDevices              = "ProgramGetDevices"
	OpProgramGetBinaryType           = "ProgramGetBinaryType"
	OpProgramGetBuildLog             = "ProgramGetBuildLog"
	OpProgramCompileExp              = "ProgramCompileExp"
	OpProgramCompile                 = "ProgramCompile"
	OpProgramBuildExp                = "ProgramBuildExp"
	OpProgramBuild                   = "ProgramBuild"
	OpProgramLinkExp                 = "ProgramLinkExp"
	OpProgramLink                    = "ProgramLink"
	OpKernelCreateWithNativeHandle   = "KernelCreateWithNativeHandle"
	OpKernelGetNativeHandle          = "KernelGetNativeHandle"
	OpKernelRetain                   = "KernelRetain"
	OpKernelRelease                  = "KernelRelease"
	OpMemGetNativeHandle             = "MemGetNativeHandle"
)

// PlatformAPI covers platform import and introspection.
type PlatformAPI interface {
	PlatformCreateWithNativeHandle(native xpuinterop.NativeHandle) (PlatformHandle, Result)
	PlatformGetBackend(p PlatformHandle) (PlatformTag, Result)
	PlatformGetNativeHandle(p PlatformHandle) (xpuinterop.NativeHandle, Result)
}

// DeviceAPI covers device import and introspection.
type DeviceAPI interface {
	DeviceCreateWithNativeHandle(native xpuinterop.NativeHandle, p PlatformHandle) (DeviceHandle, Result)
	DeviceGetPlatform(d DeviceHandle) (PlatformHandle, Result)
	DeviceGetNativeHandle(d DeviceHandle) (xpuinterop.NativeHandle, Result)
	DeviceRelease(d DeviceHandle) Result
}

// ContextAPI covers context import.
type ContextAPI interface {
	ContextCreateWithNativeHandle(native xpuinterop.NativeHandle, devices []DeviceHandle, props *NativeProperties) (ContextHandle, Result)
	ContextGetNativeHandle(c ContextHandle) (xpuinterop.NativeHandle, Result)
	ContextRelease(c ContextHandle) Result
}

// QueueAPI covers queue import.
type QueueAPI interface {
	// QueueCreateWithNativeHandle creates a queue on ctx. dev may be zero when
	// the backend can derive the device from the native handle.
	QueueCreateWithNativeHandle(native xpuinterop.NativeHandle, ctx ContextHandle, dev DeviceHandle, props *QueueNativeProperties) (QueueHandle, Result)
	// QueueGetNativeHandle fills desc, when non-nil, with the native descriptor.
	QueueGetNativeHandle(q QueueHandle, desc *QueueNativeDesc) (xpuinterop.NativeHandle, Result)
	QueueRelease(q QueueHandle) Result
}

// EventAPI covers event import and reference counting.
type EventAPI interface {
	EventCreateWithNativeHandle(native xpuinterop.NativeHandle, ctx ContextHandle, props *NativeProperties) (EventHandle, Result)
	EventGetNativeHandle(e EventHandle) (xpuinterop.NativeHandle, Result)
	EventRetain(e EventHandle) Result
	EventRelease(e EventHandle) Result
}

// ProgramAPI covers program import, introspection and compilation.
//
// The Exp forms act on an explicit device list; the legacy forms act on every
// device of the program. A backend without per-device support returns
// ResultErrorUnsupportedFeature from the Exp forms.
type ProgramAPI interface {
	ProgramCreateWithNativeHandle(native xpuinterop.NativeHandle, ctx ContextHandle, props *NativeProperties) (ProgramHandle, Result)
	ProgramGetNativeHandle(p ProgramHandle) (xpuinterop.NativeHandle, Result)
	ProgramRetain(p ProgramHandle) Result
	ProgramRelease(p ProgramHandle) Result

	ProgramGetDevices(p ProgramHandle) ([]DeviceHandle, Result)
	ProgramGetBinaryType(p ProgramHandle, d DeviceHandle) (ProgramBinaryType, Result)
	ProgramGetBuildLog(p ProgramHandle, d DeviceHandle) (string, Result)

	ProgramCompileExp(p ProgramHandle, devices []DeviceHandle, options string) Result
	ProgramCompile(ctx ContextHandle, p ProgramHandle, options string) Result
	ProgramBuildExp(p ProgramHandle, devices []DeviceHandle, options string) Result
	ProgramBuild(ctx ContextHandle, p ProgramHandle, options string) Result
	ProgramLinkExp(ctx ContextHandle, devices []DeviceHandle, inputs []ProgramHandle, options string) (ProgramHandle, Result)
	ProgramLink(ctx ContextHandle, inputs []ProgramHandle, options string) (ProgramHandle, Result)
}

// KernelAPI covers kernel import.
type KernelAPI interface {
	// KernelCreateWithNativeHandle creates a kernel on ctx. program is zero for
	// backends that do not need the owning program.
	KernelCreateWithNativeHandle(native xpuinterop.NativeHandle, ctx ContextHandle, program ProgramHandle, props *NativeProperties) (KernelHandle, Result)
	KernelGetNativeHandle(k KernelHandle) (xpuinterop.NativeHandle, Result)
	KernelRetain(k KernelHandle) Result
	KernelRelease(k KernelHandle) Result
}

// MemAPI covers native access to memory objects owned by the memory engine.
type MemAPI interface {
	MemGetNativeHandle(m MemHandle, d DeviceHandle) (xpuinterop.NativeHandle, Result)
}

// Plugin is the call table of one backend family. Every native call made
// during an import goes through the Plugin returned by the resolver.
type Plugin interface {
	PlatformAPI
	DeviceAPI
	ContextAPI
	QueueAPI
	EventAPI
	ProgramAPI
	KernelAPI
	MemAPI
}
