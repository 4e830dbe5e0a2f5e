package wasmdev

import (
	"github.com/tetratelabs/wazero"

	"github.com/wippyai/xpu-interop/backend"
)

// Config holds configuration for driver creation
type Config struct {
	// CompilationCache is shared with the wazero runtime. Nil means a private
	// in-memory cache per driver.
	CompilationCache wazero.CompilationCache

	// Kind is the backend family the driver impersonates. It decides the
	// platform tag it reports and whether importing events, programs and
	// kernels takes a reference. 0 means OpenCL.
	Kind backend.Kind

	// Devices is the number of devices on the single platform. 0 means 1.
	Devices int

	// MemoryLimitPages caps guest memory for kernels run through Run, in
	// 64KB pages. 0 means the wazero default.
	MemoryLimitPages uint32

	// DisableExp makes the per-device compile, build and link entry points
	// report ResultErrorUnsupportedFeature, like an older driver.
	DisableExp bool
}

func (c Config) withDefaults() Config {
	if c.Kind == backend.Unknown {
		c.Kind = backend.OpenCL
	}
	if c.Devices <= 0 {
		c.Devices = 1
	}
	return c
}

// importTakesReference reports whether create-with-native-handle gives the
// new backend object a reference of its own.
func (c Config) importTakesReference() bool {
	return !backend.Capabilities(c.Kind).RetainAfterImport
}
