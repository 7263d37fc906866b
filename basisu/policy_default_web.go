//go:build (js || wasip1) && !android && !ios

package basisu

// Browsers may run on mobile or desktop GPUs, so no compressed family is safe to assume.
const (
	defaultRGBFormat  = FormatRGB565
	defaultRGBAFormat = FormatRGBA4444
)
