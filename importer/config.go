package importer

// CleanupPolicy decides what happens to the program objects of a kernel
// bundle import that fails after the program was imported.
type CleanupPolicy uint8

const (
	// CleanupRelease releases the current program when the runtime owns it.
	CleanupRelease CleanupPolicy = iota
	// CleanupNone leaves every program object alive.
	CleanupNone
)

func (p CleanupPolicy) String() string {
	if p == CleanupNone {
		return "none"
	}
	return "release"
}

// Config holds configuration for importer creation
type Config struct {
	// BuildOptions is passed to every compile, build and link call issued
	// during reconciliation.
	BuildOptions string

	// Cleanup applies when MakeKernelBundle fails after the program import.
	Cleanup CleanupPolicy
}
