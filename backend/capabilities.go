package backend

import "github.com/wippyai/xpu-interop/dispatch"

// Quirks holds the per-family deviations from the common import protocol.
// Importers consult the table instead of branching on Kind.
type Quirks struct {
	// QueueNativeDesc builds the native descriptor passed with a queue import.
	// Nil means the family ignores the descriptor and none is sent.
	QueueNativeDesc func(nativeDesc int32) *dispatch.QueueNativeDesc

	// RetainAfterImport adds one retain after importing events, programs and
	// kernels. The family's create-with-native-handle does not take a
	// reference of its own.
	RetainAfterImport bool

	// KernelNeedsProgram requires the kernel bundle passed to a kernel import
	// to hold exactly one device image, whose program is handed to the backend.
	KernelNeedsProgram bool
}

func encodeNativeDesc(nativeDesc int32) *dispatch.QueueNativeDesc {
	return &dispatch.QueueNativeDesc{NativeData: nativeDesc}
}

var quirksTable = map[Kind]Quirks{
	OpenCL: {
		RetainAfterImport: true,
	},
	LevelZero: {
		QueueNativeDesc:    encodeNativeDesc,
		KernelNeedsProgram: true,
	},
	CUDA: {},
	HIP:  {},
}

// Capabilities returns the quirks of k. Kinds without an entry get the zero
// Quirks, which is the common protocol.
func Capabilities(k Kind) Quirks {
	return quirksTable[k]
}
