package basisu_test

import (
	"testing"

	"github.com/am-sokolov/go-basisu/basisu"
)

func TestTranscoderFormat_BytesPerUnit(t *testing.T) {
	cases := []struct {
		f            basisu.TranscoderFormat
		bytes        int
		uncompressed bool
		alpha        bool
	}{
		{basisu.FormatETC1RGB, 8, false, false},
		{basisu.FormatETC2RGBA, 16, false, true},
		{basisu.FormatBC1RGB, 8, false, false},
		{basisu.FormatBC3RGBA, 16, false, true},
		{basisu.FormatPVRTC14RGB, 8, false, false},
		{basisu.FormatPVRTC14RGBA, 8, false, true},
		{basisu.FormatASTC4x4RGBA, 16, false, true},
		{basisu.FormatRGBA32, 4, true, true},
		{basisu.FormatRGB565, 2, true, false},
		{basisu.FormatRGBA4444, 2, true, true},
		{basisu.FormatRGBHalf, 6, true, false},
		{basisu.FormatRGBAHalf, 8, true, true},
	}
	for _, c := range cases {
		if got := c.f.BytesPerBlockOrPixel(); got != c.bytes {
			t.Fatalf("%s: BytesPerBlockOrPixel got %d want %d", c.f, got, c.bytes)
		}
		if got := c.f.IsUncompressed(); got != c.uncompressed {
			t.Fatalf("%s: IsUncompressed got %v want %v", c.f, got, c.uncompressed)
		}
		if got := c.f.HasAlpha(); got != c.alpha {
			t.Fatalf("%s: HasAlpha got %v want %v", c.f, got, c.alpha)
		}
		if back := c.f.PixelFormat().TranscoderFormat(); back != c.f {
			t.Fatalf("%s: PixelFormat round trip got %s", c.f, back)
		}
	}

	bad := basisu.TranscoderFormat(200)
	if bad.Valid() || bad.BytesPerBlockOrPixel() != 0 {
		t.Fatalf("TranscoderFormat(200): expected invalid with zero unit size")
	}
}

func TestPixelFormat_FallsBackToRGBA32(t *testing.T) {
	for _, p := range []basisu.PixelFormat{
		basisu.PixelFormatUncompressedGrayscale,
		basisu.PixelFormatUncompressedR32G32B32A32,
		basisu.PixelFormatCompressedDXT3RGBA,
		basisu.PixelFormatCompressedASTC8x8RGBA,
		basisu.PixelFormat(0),
		basisu.PixelFormat(9999),
	} {
		if got := p.TranscoderFormat(); got != basisu.FormatRGBA32 {
			t.Fatalf("%s: got %s want RGBA32", p, got)
		}
		if p.Transcodable() {
			t.Fatalf("%s: Transcodable got true", p)
		}
	}
	if !basisu.PixelFormatCompressedDXT1RGB.Transcodable() {
		t.Fatalf("DXT1_RGB: Transcodable got false")
	}
}

func TestPixelFormat_RGBA32IsEightBitPerChannel(t *testing.T) {
	if got := basisu.FormatRGBA32.PixelFormat(); got != basisu.PixelFormatUncompressedR8G8B8A8 {
		t.Fatalf("RGBA32 tag: got %s want UNCOMPRESSED_R8G8B8A8", got)
	}
}

func TestParsePixelFormat(t *testing.T) {
	cases := []struct {
		in   string
		want basisu.PixelFormat
	}{
		{"COMPRESSED_DXT1_RGB", basisu.PixelFormatCompressedDXT1RGB},
		{"pixelformat_compressed_etc2_eac_rgba", basisu.PixelFormatCompressedETC2EACRGBA},
		{" uncompressed_r5g6b5 ", basisu.PixelFormatUncompressedR5G6B5},
		{"bc3_rgba", basisu.PixelFormatCompressedDXT5RGBA},
		{"RGBA32", basisu.PixelFormatUncompressedR8G8B8A8},
		{"astc_4x4_rgba", basisu.PixelFormatCompressedASTC4x4RGBA},
	}
	for _, c := range cases {
		got, err := basisu.ParsePixelFormat(c.in)
		if err != nil {
			t.Fatalf("ParsePixelFormat(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParsePixelFormat(%q): got %s want %s", c.in, got, c.want)
		}
	}
	if _, err := basisu.ParsePixelFormat("jpeg"); err == nil {
		t.Fatalf("ParsePixelFormat(jpeg): expected error")
	}
}
