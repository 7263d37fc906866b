//go:build android || ios

package basisu

const (
	defaultRGBFormat  = FormatETC1RGB
	defaultRGBAFormat = FormatETC2RGBA
)
