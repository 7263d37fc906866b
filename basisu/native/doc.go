// Package native provides an optional CGO-backed basisu.Backend around the upstream C++
// Basis Universal transcoder, plus an allocator that hands out C heap memory.
//
// By default this package builds in "disabled" mode (pure Go, no CGO), returning an error from all
// operations. To enable it, build with:
//
//	-tags basisu_native
//
// and ensure CGO is enabled (e.g. `CGO_ENABLED=1`). The transcoder sources are expected under
// internal/transcoder/upstream.
//
// Optional build tags:
//   - `basisu_noktx2`: compile the transcoder without KTX2 support (also disables KTX2 in package basisu).
//   - `basisu_nativearch`: compile with `-march=native` (not portable).
package native
