package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/am-sokolov/go-basisu/basisu"
	"github.com/am-sokolov/go-basisu/basisu/basisutest"
)

func rgbaImage(t *testing.T) *basisu.Image {
	t.Helper()
	if !basisu.KTX2Supported {
		t.Skip("built without KTX2 support")
	}
	policy := basisu.NewFormatPolicy()
	policy.ConfigureRGBA(basisu.PixelFormatUncompressedR8G8B8A8)
	dec := basisu.NewKTX2Decoder(basisu.DecoderConfig{Policy: policy})
	img, err := dec.Decode(basisutest.KTX2File(basisutest.KTX2Options{
		Payload:  basisu.PayloadRGBA8,
		HasAlpha: true,
		Width:    4,
		Height:   2,
		Levels:   2,
	}))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	t.Cleanup(img.Release)
	return img
}

func TestPreview_PNGAndBMP(t *testing.T) {
	img := rgbaImage(t)
	m, err := previewImage(img)
	if err != nil {
		t.Fatalf("previewImage: %v", err)
	}
	want := basisutest.Pixel(0, 3, 1)

	var buf bytes.Buffer
	if err := encodePreview(&buf, ".PNG", m); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Fatalf("png bounds: got %v", b)
	}
	if got := m.NRGBAAt(3, 1); [4]uint8{got.R, got.G, got.B, got.A} != want {
		t.Fatalf("pixel (3,1): got %v want %v", got, want)
	}

	buf.Reset()
	if err := encodePreview(&buf, ".bmp", m); err != nil {
		t.Fatalf("encode bmp: %v", err)
	}
	if _, err := bmp.Decode(&buf); err != nil {
		t.Fatalf("bmp.Decode: %v", err)
	}
}

func TestWritePreview_File(t *testing.T) {
	img := rgbaImage(t)
	path := filepath.Join(t.TempDir(), "level0.png")
	if err := writePreview(path, img); err != nil {
		t.Fatalf("writePreview: %v", err)
	}
	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if st.Size() == 0 {
		t.Fatalf("preview file is empty")
	}
}

func TestPreview_Rejects(t *testing.T) {
	img := rgbaImage(t)
	if err := encodePreview(&bytes.Buffer{}, ".tga", nil); err == nil {
		t.Fatalf("encodePreview(.tga): expected error")
	}
	compressed := *img
	compressed.Format = basisu.PixelFormatCompressedDXT1RGB
	if _, err := previewImage(&compressed); err == nil {
		t.Fatalf("previewImage(DXT1): expected error")
	}
}

func TestFNV1a64(t *testing.T) {
	if got := fmtChecksum(fnv1a64(0, []byte("a"))); got != "af63dc4c8601ec8c" {
		t.Fatalf("fnv1a64(a): got %s", got)
	}
}
