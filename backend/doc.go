// Package backend resolves backend families to their call tables.
//
// Kind enumerates the driver families known to the runtime. Only OpenCL,
// LevelZero, CUDA and HIP have call tables; Resolver.Resolve fails with an
// unsupported_backend error for anything else.
//
// Two generations of platform tag enumerations exist. FromLegacyTag and
// FromPlatformTag map both onto Kind and never fail: a tag they do not
// recognize maps to Unknown. Note the asymmetry: Unknown is a valid Kind but
// resolving it fails, so a caller that feeds an unmapped tag straight into
// Resolve first learns about it there.
//
// Capabilities exposes the per-family quirks of the import protocol as data.
package backend
