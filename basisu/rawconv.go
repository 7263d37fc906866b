package basisu

import (
	"encoding/binary"
	"fmt"
)

// convertRaw converts width*height texels of an 8-bit RGB or RGBA source into an
// uncompressed target. Compressed targets would require encoding and are rejected.
func convertRaw(src []byte, srcBPP, width, height int, dst []byte, f TranscoderFormat) error {
	if !f.IsUncompressed() {
		return newError(ErrUnsupportedFormat,
			fmt.Sprintf("basisu: uncompressed payloads cannot be transcoded to %s", f))
	}
	if srcBPP != 3 && srcBPP != 4 {
		return fmt.Errorf("basisu: unsupported source texel size %d", srcBPP)
	}
	n := width * height
	if len(src) < n*srcBPP {
		return ioErrUnexpectedEOF("level data", n*srcBPP, len(src))
	}
	if want := n * f.BytesPerBlockOrPixel(); len(dst) != want {
		return fmt.Errorf("basisu: output level is %d bytes, want %d", len(dst), want)
	}

	le := binary.LittleEndian
	for i := 0; i < n; i++ {
		s := src[i*srcBPP:]
		r, g, b, a := s[0], s[1], s[2], uint8(0xFF)
		if srcBPP == 4 {
			a = s[3]
		}
		switch f {
		case FormatRGBA32:
			d := dst[i*4:]
			d[0], d[1], d[2], d[3] = r, g, b, a
		case FormatRGB565:
			le.PutUint16(dst[i*2:], uint16(r>>3)<<11|uint16(g>>2)<<5|uint16(b>>3))
		case FormatRGBA4444:
			le.PutUint16(dst[i*2:], uint16(r>>4)<<12|uint16(g>>4)<<8|uint16(b>>4)<<4|uint16(a>>4))
		case FormatRGBHalf:
			d := dst[i*6:]
			le.PutUint16(d[0:], unorm8ToSF16(r))
			le.PutUint16(d[2:], unorm8ToSF16(g))
			le.PutUint16(d[4:], unorm8ToSF16(b))
		case FormatRGBAHalf:
			d := dst[i*8:]
			le.PutUint16(d[0:], unorm8ToSF16(r))
			le.PutUint16(d[2:], unorm8ToSF16(g))
			le.PutUint16(d[4:], unorm8ToSF16(b))
			le.PutUint16(d[6:], unorm8ToSF16(a))
		}
	}
	return nil
}
