package dispatch

// Backend object handles. They are issued by a Plugin and are only meaningful
// to the plugin that issued them. The zero value is never a valid handle.
type (
	PlatformHandle uint64
	DeviceHandle   uint64
	ContextHandle  uint64
	QueueHandle    uint64
	EventHandle    uint64
	ProgramHandle  uint64
	KernelHandle   uint64
	MemHandle      uint64
)

// LegacyPlatformTag is the first-generation platform backend enumeration.
type LegacyPlatformTag uint32

const (
	LegacyTagUnknown LegacyPlatformTag = iota
	LegacyTagLevelZero
	LegacyTagOpenCL
	LegacyTagCUDA
	LegacyTagHIP
	LegacyTagESIMD
	LegacyTagNativeCPU
)

// PlatformTag is the current platform backend enumeration reported by
// PlatformGetBackend.
type PlatformTag uint32

const (
	TagUnknown PlatformTag = iota
	TagLevelZero
	TagOpenCL
	TagCUDA
	TagHIP
	TagNativeCPU
)

// ProgramBinaryType is a backend's record of how far one device's portion of a
// program has been compiled.
type ProgramBinaryType uint32

const (
	BinaryNone ProgramBinaryType = iota
	BinaryCompiledObject
	BinaryLibrary
	BinaryExecutable
)

func (t ProgramBinaryType) String() string {
	switch t {
	case BinaryNone:
		return "none"
	case BinaryCompiledObject:
		return "compiled_object"
	case BinaryLibrary:
		return "library"
	case BinaryExecutable:
		return "executable"
	default:
		return "unknown"
	}
}
