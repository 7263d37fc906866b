//go:build !android && !ios && !js && !wasip1

package basisu

const (
	defaultRGBFormat  = FormatBC1RGB
	defaultRGBAFormat = FormatBC3RGBA
)
