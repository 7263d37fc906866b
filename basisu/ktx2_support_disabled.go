//go:build basisu_noktx2

package basisu

// KTX2Supported reports whether this build loads KTX2 containers.
const KTX2Supported = false
