//go:build !basisu_noktx2

package basisu

// KTX2Supported reports whether this build loads KTX2 containers.
// Build with -tags basisu_noktx2 to drop KTX2 support.
const KTX2Supported = true
