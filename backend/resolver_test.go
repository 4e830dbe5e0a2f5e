package backend

import (
	"testing"

	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/errors"
)

// stubPlugin satisfies dispatch.Plugin; the resolver never calls into it.
type stubPlugin struct {
	dispatch.Plugin
	name string
}

func allStubs() map[Kind]dispatch.Plugin {
	m := make(map[Kind]dispatch.Plugin)
	for _, k := range SupportedKinds() {
		m[k] = &stubPlugin{name: k.String()}
	}
	return m
}

func TestResolver_SupportedKinds(t *testing.T) {
	r := NewResolver(allStubs())

	for _, k := range SupportedKinds() {
		p, err := r.Resolve(k)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", k, err)
		}
		if p == nil {
			t.Fatalf("Resolve(%s) returned nil plugin", k)
		}
		if got := p.(*stubPlugin).name; got != k.String() {
			t.Errorf("Resolve(%s) returned plugin for %s", k, got)
		}
	}
}

func TestResolver_UnsupportedKinds(t *testing.T) {
	r := NewResolver(allStubs())

	for _, k := range []Kind{Unknown, ESIMDEmulator, NativeCPU, Kind(200)} {
		p, err := r.Resolve(k)
		if err == nil {
			t.Fatalf("Resolve(%s) succeeded with %v", k, p)
		}
		if !errors.IsKind(err, errors.KindUnsupportedBackend) {
			t.Errorf("Resolve(%s): want unsupported_backend, got %v", k, err)
		}
	}
}

func TestResolver_NotLoaded(t *testing.T) {
	r := NewResolver(nil)

	_, err := r.Resolve(CUDA)
	if !errors.IsKind(err, errors.KindUnsupportedBackend) {
		t.Fatalf("want unsupported_backend, got %v", err)
	}

	if err := r.Register(CUDA, &stubPlugin{name: "cuda"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := r.Resolve(CUDA); err != nil {
		t.Fatalf("Resolve after Register: %v", err)
	}

	r.Unregister(CUDA)
	if _, err := r.Resolve(CUDA); err == nil {
		t.Fatal("Resolve after Unregister should fail")
	}
}

func TestResolver_RegisterRejects(t *testing.T) {
	r := NewResolver(nil)

	if err := r.Register(NativeCPU, &stubPlugin{}); !errors.IsKind(err, errors.KindUnsupportedBackend) {
		t.Errorf("Register(native_cpu): %v", err)
	}
	if err := r.Register(HIP, nil); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("Register(nil): %v", err)
	}
}

func TestNewResolver_IgnoresUnsupportedEntries(t *testing.T) {
	r := NewResolver(map[Kind]dispatch.Plugin{
		NativeCPU: &stubPlugin{},
		HIP:       &stubPlugin{},
	})

	loaded := r.Loaded()
	if len(loaded) != 1 || loaded[0] != HIP {
		t.Errorf("Loaded() = %v, want [hip]", loaded)
	}
}
