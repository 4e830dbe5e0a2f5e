package backend

import "fmt"

// Kind identifies a backend driver family.
type Kind uint8

const (
	// Unknown is the "no specific backend" sentinel. It is what unrecognized
	// platform tags map to and it never resolves to a call table.
	Unknown Kind = iota
	OpenCL
	LevelZero
	CUDA
	HIP
	ESIMDEmulator
	NativeCPU
)

var kindNames = [...]string{
	Unknown:       "all",
	OpenCL:        "opencl",
	LevelZero:     "level_zero",
	CUDA:          "cuda",
	HIP:           "hip",
	ESIMDEmulator: "esimd_emulator",
	NativeCPU:     "native_cpu",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("backend(%d)", uint8(k))
}

// Supported reports whether k has a call table in the interop layer.
func (k Kind) Supported() bool {
	switch k {
	case OpenCL, LevelZero, CUDA, HIP:
		return true
	}
	return false
}

// ParseKind parses a backend name as produced by Kind.String. A few common
// aliases are accepted.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "opencl", "ocl":
		return OpenCL, nil
	case "level_zero", "levelzero", "l0":
		return LevelZero, nil
	case "cuda":
		return CUDA, nil
	case "hip":
		return HIP, nil
	case "esimd_emulator":
		return ESIMDEmulator, nil
	case "native_cpu":
		return NativeCPU, nil
	case "all", "unknown":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("unknown backend %q", s)
}

// SupportedKinds returns the kinds that can be resolved to a call table, in a
// stable order.
func SupportedKinds() []Kind {
	return []Kind{OpenCL, LevelZero, CUDA, HIP}
}
