package backend

import "github.com/wippyai/xpu-interop/dispatch"

// FromLegacyTag maps a first-generation platform tag to a Kind.
// Unrecognized tags map to Unknown.
func FromLegacyTag(tag dispatch.LegacyPlatformTag) Kind {
	switch tag {
	case dispatch.LegacyTagLevelZero:
		return LevelZero
	case dispatch.LegacyTagOpenCL:
		return OpenCL
	case dispatch.LegacyTagCUDA:
		return CUDA
	case dispatch.LegacyTagHIP:
		return HIP
	case dispatch.LegacyTagESIMD:
		return ESIMDEmulator
	case dispatch.LegacyTagNativeCPU:
		return NativeCPU
	default:
		return Unknown
	}
}

// FromPlatformTag maps a current-generation platform tag to a Kind.
// Unrecognized tags map to Unknown.
func FromPlatformTag(tag dispatch.PlatformTag) Kind {
	switch tag {
	case dispatch.TagLevelZero:
		return LevelZero
	case dispatch.TagOpenCL:
		return OpenCL
	case dispatch.TagCUDA:
		return CUDA
	case dispatch.TagHIP:
		return HIP
	case dispatch.TagNativeCPU:
		return NativeCPU
	default:
		return Unknown
	}
}

// PlatformTagOf is the inverse of FromPlatformTag for kinds that have a
// current-generation tag. Other kinds yield TagUnknown.
func PlatformTagOf(k Kind) dispatch.PlatformTag {
	switch k {
	case LevelZero:
		return dispatch.TagLevelZero
	case OpenCL:
		return dispatch.TagOpenCL
	case CUDA:
		return dispatch.TagCUDA
	case HIP:
		return dispatch.TagHIP
	case NativeCPU:
		return dispatch.TagNativeCPU
	default:
		return dispatch.TagUnknown
	}
}
