package basisu

import (
	"fmt"
	"strings"
)

// TranscoderFormat is a transcode target understood by the Basis Universal transcoder.
type TranscoderFormat uint8

const (
	FormatETC1RGB     TranscoderFormat = iota // ETC1 RGB, 8 bytes per 4x4 block
	FormatETC2RGBA                            // ETC2 RGB + EAC alpha, 16 bytes per block
	FormatBC1RGB                              // BC1/DXT1 RGB, 8 bytes per block
	FormatBC3RGBA                             // BC3/DXT5 RGBA, 16 bytes per block
	FormatPVRTC14RGB                          // PVRTC1 4bpp RGB, 8 bytes per block
	FormatPVRTC14RGBA                         // PVRTC1 4bpp RGBA, 8 bytes per block
	FormatASTC4x4RGBA                         // ASTC 4x4 LDR, 16 bytes per block
	FormatRGBA32                              // 8 bits per channel RGBA
	FormatRGB565                              // 16-bit RGB, R in the high bits
	FormatRGBA4444                            // 16-bit RGBA, R in the high nibble
	FormatRGBHalf                             // 3 x FP16
	FormatRGBAHalf                            // 4 x FP16

	numTranscoderFormats
)

// BlockDim is the texel footprint of every block-compressed target format.
const BlockDim = 4

var transcoderFormatNames = [numTranscoderFormats]string{
	FormatETC1RGB:     "ETC1_RGB",
	FormatETC2RGBA:    "ETC2_RGBA",
	FormatBC1RGB:      "BC1_RGB",
	FormatBC3RGBA:     "BC3_RGBA",
	FormatPVRTC14RGB:  "PVRTC1_4_RGB",
	FormatPVRTC14RGBA: "PVRTC1_4_RGBA",
	FormatASTC4x4RGBA: "ASTC_4x4_RGBA",
	FormatRGBA32:      "RGBA32",
	FormatRGB565:      "RGB565",
	FormatRGBA4444:    "RGBA4444",
	FormatRGBHalf:     "RGB_HALF",
	FormatRGBAHalf:    "RGBA_HALF",
}

var bytesPerUnit = [numTranscoderFormats]int{
	FormatETC1RGB:     8,
	FormatETC2RGBA:    16,
	FormatBC1RGB:      8,
	FormatBC3RGBA:     16,
	FormatPVRTC14RGB:  8,
	FormatPVRTC14RGBA: 8,
	FormatASTC4x4RGBA: 16,
	FormatRGBA32:      4,
	FormatRGB565:      2,
	FormatRGBA4444:    2,
	FormatRGBHalf:     6,
	FormatRGBAHalf:    8,
}

// Valid reports whether f is one of the known transcode targets.
func (f TranscoderFormat) Valid() bool { return f < numTranscoderFormats }

func (f TranscoderFormat) String() string {
	if !f.Valid() {
		return fmt.Sprintf("TranscoderFormat(%d)", uint8(f))
	}
	return transcoderFormatNames[f]
}

// IsUncompressed reports whether f stores one fixed-size unit per pixel rather than per block.
func (f TranscoderFormat) IsUncompressed() bool {
	switch f {
	case FormatRGBA32, FormatRGB565, FormatRGBA4444, FormatRGBHalf, FormatRGBAHalf:
		return true
	default:
		return false
	}
}

// BytesPerBlockOrPixel returns the size of one output unit: a pixel for uncompressed
// formats, a 4x4 block otherwise. It returns 0 for unknown formats.
func (f TranscoderFormat) BytesPerBlockOrPixel() int {
	if !f.Valid() {
		return 0
	}
	return bytesPerUnit[f]
}

// HasAlpha reports whether f carries an alpha channel.
func (f TranscoderFormat) HasAlpha() bool {
	switch f {
	case FormatETC2RGBA, FormatBC3RGBA, FormatPVRTC14RGBA, FormatASTC4x4RGBA,
		FormatRGBA32, FormatRGBA4444, FormatRGBAHalf:
		return true
	default:
		return false
	}
}

// PixelFormat returns the graphics framework tag describing f.
func (f TranscoderFormat) PixelFormat() PixelFormat {
	switch f {
	case FormatETC1RGB:
		return PixelFormatCompressedETC1RGB
	case FormatETC2RGBA:
		return PixelFormatCompressedETC2EACRGBA
	case FormatBC1RGB:
		return PixelFormatCompressedDXT1RGB
	case FormatBC3RGBA:
		return PixelFormatCompressedDXT5RGBA
	case FormatPVRTC14RGB:
		return PixelFormatCompressedPVRTRGB
	case FormatPVRTC14RGBA:
		return PixelFormatCompressedPVRTRGBA
	case FormatASTC4x4RGBA:
		return PixelFormatCompressedASTC4x4RGBA
	case FormatRGB565:
		return PixelFormatUncompressedR5G6B5
	case FormatRGBA4444:
		return PixelFormatUncompressedR4G4B4A4
	case FormatRGBHalf:
		return PixelFormatUncompressedR16G16B16
	case FormatRGBAHalf:
		return PixelFormatUncompressedR16G16B16A16
	default:
		return PixelFormatUncompressedR8G8B8A8
	}
}

// PixelFormat is the pixel format tag of the embedding graphics framework.
//
// The numbering follows the framework's enum, so values can be passed through unchanged.
type PixelFormat int32

const (
	PixelFormatUncompressedGrayscale    PixelFormat = iota + 1 // 8 bit per pixel (no alpha)
	PixelFormatUncompressedGrayAlpha                           // 8*2 bpp (2 channels)
	PixelFormatUncompressedR5G6B5                              // 16 bpp
	PixelFormatUncompressedR8G8B8                              // 24 bpp
	PixelFormatUncompressedR5G5B5A1                            // 16 bpp (1 bit alpha)
	PixelFormatUncompressedR4G4B4A4                            // 16 bpp (4 bit alpha)
	PixelFormatUncompressedR8G8B8A8                            // 32 bpp
	PixelFormatUncompressedR32                                 // 32 bpp (1 channel - float)
	PixelFormatUncompressedR32G32B32                           // 32*3 bpp (3 channels - float)
	PixelFormatUncompressedR32G32B32A32                        // 32*4 bpp (4 channels - float)
	PixelFormatUncompressedR16                                 // 16 bpp (1 channel - half float)
	PixelFormatUncompressedR16G16B16                           // 16*3 bpp (3 channels - half float)
	PixelFormatUncompressedR16G16B16A16                        // 16*4 bpp (4 channels - half float)
	PixelFormatCompressedDXT1RGB                               // 4 bpp (no alpha)
	PixelFormatCompressedDXT1RGBA                              // 4 bpp (1 bit alpha)
	PixelFormatCompressedDXT3RGBA                              // 8 bpp
	PixelFormatCompressedDXT5RGBA                              // 8 bpp
	PixelFormatCompressedETC1RGB                               // 4 bpp
	PixelFormatCompressedETC2RGB                               // 4 bpp
	PixelFormatCompressedETC2EACRGBA                           // 8 bpp
	PixelFormatCompressedPVRTRGB                               // 4 bpp
	PixelFormatCompressedPVRTRGBA                              // 4 bpp
	PixelFormatCompressedASTC4x4RGBA                           // 8 bpp
	PixelFormatCompressedASTC8x8RGBA                           // 2 bpp
)

var pixelFormatNames = map[PixelFormat]string{
	PixelFormatUncompressedGrayscale:    "UNCOMPRESSED_GRAYSCALE",
	PixelFormatUncompressedGrayAlpha:    "UNCOMPRESSED_GRAY_ALPHA",
	PixelFormatUncompressedR5G6B5:       "UNCOMPRESSED_R5G6B5",
	PixelFormatUncompressedR8G8B8:       "UNCOMPRESSED_R8G8B8",
	PixelFormatUncompressedR5G5B5A1:     "UNCOMPRESSED_R5G5B5A1",
	PixelFormatUncompressedR4G4B4A4:     "UNCOMPRESSED_R4G4B4A4",
	PixelFormatUncompressedR8G8B8A8:     "UNCOMPRESSED_R8G8B8A8",
	PixelFormatUncompressedR32:          "UNCOMPRESSED_R32",
	PixelFormatUncompressedR32G32B32:    "UNCOMPRESSED_R32G32B32",
	PixelFormatUncompressedR32G32B32A32: "UNCOMPRESSED_R32G32B32A32",
	PixelFormatUncompressedR16:          "UNCOMPRESSED_R16",
	PixelFormatUncompressedR16G16B16:    "UNCOMPRESSED_R16G16B16",
	PixelFormatUncompressedR16G16B16A16: "UNCOMPRESSED_R16G16B16A16",
	PixelFormatCompressedDXT1RGB:        "COMPRESSED_DXT1_RGB",
	PixelFormatCompressedDXT1RGBA:       "COMPRESSED_DXT1_RGBA",
	PixelFormatCompressedDXT3RGBA:       "COMPRESSED_DXT3_RGBA",
	PixelFormatCompressedDXT5RGBA:       "COMPRESSED_DXT5_RGBA",
	PixelFormatCompressedETC1RGB:        "COMPRESSED_ETC1_RGB",
	PixelFormatCompressedETC2RGB:        "COMPRESSED_ETC2_RGB",
	PixelFormatCompressedETC2EACRGBA:    "COMPRESSED_ETC2_EAC_RGBA",
	PixelFormatCompressedPVRTRGB:        "COMPRESSED_PVRT_RGB",
	PixelFormatCompressedPVRTRGBA:       "COMPRESSED_PVRT_RGBA",
	PixelFormatCompressedASTC4x4RGBA:    "COMPRESSED_ASTC_4x4_RGBA",
	PixelFormatCompressedASTC8x8RGBA:    "COMPRESSED_ASTC_8x8_RGBA",
}

func (p PixelFormat) String() string {
	if s, ok := pixelFormatNames[p]; ok {
		return s
	}
	return fmt.Sprintf("PixelFormat(%d)", int32(p))
}

// TranscoderFormat maps p onto a transcode target.
//
// Tags without a transcode target resolve to FormatRGBA32 so a selector is never left
// holding an undefined value.
func (p PixelFormat) TranscoderFormat() TranscoderFormat {
	f, _ := p.transcoderFormat()
	return f
}

// Transcodable reports whether p has a direct transcode target (as opposed to the fallback).
func (p PixelFormat) Transcodable() bool {
	_, ok := p.transcoderFormat()
	return ok
}

func (p PixelFormat) transcoderFormat() (TranscoderFormat, bool) {
	switch p {
	case PixelFormatCompressedETC1RGB:
		return FormatETC1RGB, true
	case PixelFormatCompressedETC2EACRGBA:
		return FormatETC2RGBA, true
	case PixelFormatCompressedDXT1RGB:
		return FormatBC1RGB, true
	case PixelFormatCompressedDXT5RGBA:
		return FormatBC3RGBA, true
	case PixelFormatCompressedPVRTRGB:
		return FormatPVRTC14RGB, true
	case PixelFormatCompressedPVRTRGBA:
		return FormatPVRTC14RGBA, true
	case PixelFormatCompressedASTC4x4RGBA:
		return FormatASTC4x4RGBA, true
	case PixelFormatUncompressedR8G8B8A8:
		return FormatRGBA32, true
	case PixelFormatUncompressedR5G6B5:
		return FormatRGB565, true
	case PixelFormatUncompressedR4G4B4A4:
		return FormatRGBA4444, true
	case PixelFormatUncompressedR16G16B16:
		return FormatRGBHalf, true
	case PixelFormatUncompressedR16G16B16A16:
		return FormatRGBAHalf, true
	default:
		return FormatRGBA32, false
	}
}

// ParsePixelFormat parses a pixel format name such as "COMPRESSED_DXT1_RGB",
// "PIXELFORMAT_COMPRESSED_DXT1_RGB" or a transcoder target name such as "bc1_rgb".
// Matching ignores case.
func ParsePixelFormat(name string) (PixelFormat, error) {
	s := strings.ToUpper(strings.TrimSpace(name))
	s = strings.TrimPrefix(s, "PIXELFORMAT_")
	for p, n := range pixelFormatNames {
		if n == s {
			return p, nil
		}
	}
	for f, n := range transcoderFormatNames {
		if n == s {
			return TranscoderFormat(f).PixelFormat(), nil
		}
	}
	return 0, fmt.Errorf("basisu: unknown pixel format %q", name)
}
