package backend

import (
	"testing"

	"github.com/wippyai/xpu-interop/dispatch"
)

func TestFromLegacyTag(t *testing.T) {
	tests := []struct {
		tag  dispatch.LegacyPlatformTag
		want Kind
	}{
		{dispatch.LegacyTagUnknown, Unknown},
		{dispatch.LegacyTagLevelZero, LevelZero},
		{dispatch.LegacyTagOpenCL, OpenCL},
		{dispatch.LegacyTagCUDA, CUDA},
		{dispatch.LegacyTagHIP, HIP},
		{dispatch.LegacyTagESIMD, ESIMDEmulator},
		{dispatch.LegacyTagNativeCPU, NativeCPU},
	}
	for _, tt := range tests {
		if got := FromLegacyTag(tt.tag); got != tt.want {
			t.Errorf("FromLegacyTag(%d) = %s, want %s", tt.tag, got, tt.want)
		}
	}
}

func TestFromPlatformTag(t *testing.T) {
	tests := []struct {
		tag  dispatch.PlatformTag
		want Kind
	}{
		{dispatch.TagUnknown, Unknown},
		{dispatch.TagLevelZero, LevelZero},
		{dispatch.TagOpenCL, OpenCL},
		{dispatch.TagCUDA, CUDA},
		{dispatch.TagHIP, HIP},
		{dispatch.TagNativeCPU, NativeCPU},
	}
	for _, tt := range tests {
		if got := FromPlatformTag(tt.tag); got != tt.want {
			t.Errorf("FromPlatformTag(%d) = %s, want %s", tt.tag, got, tt.want)
		}
	}
}

// Every tag value, recognized or not, maps to a defined Kind.
func TestTagMappingIsTotal(t *testing.T) {
	defined := map[Kind]bool{}
	for k := Unknown; k <= NativeCPU; k++ {
		defined[k] = true
	}

	for v := uint32(0); v < 64; v++ {
		if k := FromLegacyTag(dispatch.LegacyPlatformTag(v)); !defined[k] {
			t.Fatalf("legacy tag %d mapped to undefined kind %d", v, k)
		}
		if k := FromPlatformTag(dispatch.PlatformTag(v)); !defined[k] {
			t.Fatalf("tag %d mapped to undefined kind %d", v, k)
		}
	}
	for _, v := range []uint32{0x7fffffff, 0xffffffff} {
		if k := FromLegacyTag(dispatch.LegacyPlatformTag(v)); k != Unknown {
			t.Errorf("legacy tag %#x = %s, want all", v, k)
		}
		if k := FromPlatformTag(dispatch.PlatformTag(v)); k != Unknown {
			t.Errorf("tag %#x = %s, want all", v, k)
		}
	}
}

func TestPlatformTagRoundTrip(t *testing.T) {
	for _, k := range []Kind{OpenCL, LevelZero, CUDA, HIP, NativeCPU} {
		if got := FromPlatformTag(PlatformTagOf(k)); got != k {
			t.Errorf("round trip %s -> %s", k, got)
		}
	}
	if PlatformTagOf(ESIMDEmulator) != dispatch.TagUnknown {
		t.Error("esimd has no current-generation tag")
	}
}

func TestParseKind(t *testing.T) {
	for k := Unknown; k <= NativeCPU; k++ {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", k.String(), err)
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %s", k.String(), got)
		}
	}
	if _, err := ParseKind("metal"); err == nil {
		t.Error("expected error for metal")
	}
}

func TestCapabilities(t *testing.T) {
	if !Capabilities(OpenCL).RetainAfterImport {
		t.Error("opencl needs the retain correction")
	}
	for _, k := range []Kind{LevelZero, CUDA, HIP, Unknown} {
		if Capabilities(k).RetainAfterImport {
			t.Errorf("%s should not retain after import", k)
		}
	}

	l0 := Capabilities(LevelZero)
	if !l0.KernelNeedsProgram {
		t.Error("level_zero kernels need a program")
	}
	if l0.QueueNativeDesc == nil {
		t.Fatal("level_zero encodes a queue descriptor")
	}
	if d := l0.QueueNativeDesc(7); d == nil || d.NativeData != 7 {
		t.Errorf("descriptor = %+v", d)
	}
	if Capabilities(CUDA).QueueNativeDesc != nil {
		t.Error("cuda ignores the queue descriptor")
	}
}
