package basisu_test

import (
	"testing"

	"github.com/am-sokolov/go-basisu/basisu"
	"github.com/am-sokolov/go-basisu/basisu/basisutest"
)

func TestParseBasisFile_UASTC(t *testing.T) {
	data := basisutest.BasisFile(basisutest.BasisOptions{
		TexFormat: basisu.TexFormatUASTC4x4,
		Levels:    basisutest.MipChain(10, 6, 3),
	})
	f, err := basisu.ParseBasisFile(data)
	if err != nil {
		t.Fatalf("ParseBasisFile: %v", err)
	}
	if got := f.Header.TotalSlices; got != 3 {
		t.Fatalf("TotalSlices: got %d want 3", got)
	}

	info, err := f.ImageInfo(0)
	if err != nil {
		t.Fatalf("ImageInfo: %v", err)
	}
	if info.Width != 10 || info.Height != 6 || info.HasAlpha {
		t.Fatalf("ImageInfo: got %dx%d alpha=%v", info.Width, info.Height, info.HasAlpha)
	}
	want := []basisu.LevelInfo{
		{Index: 0, Width: 10, Height: 6, BlocksX: 3, BlocksY: 2, TotalBlocks: 6},
		{Index: 1, Width: 5, Height: 3, BlocksX: 2, BlocksY: 1, TotalBlocks: 2},
		{Index: 2, Width: 2, Height: 1, BlocksX: 1, BlocksY: 1, TotalBlocks: 1},
	}
	if len(info.Levels) != len(want) {
		t.Fatalf("levels: got %d want %d", len(info.Levels), len(want))
	}
	for i := range want {
		if info.Levels[i] != want[i] {
			t.Fatalf("level %d: got %+v want %+v", i, info.Levels[i], want[i])
		}
	}
	if got := len(f.SliceData(0)); got != 8*6 {
		t.Fatalf("SliceData(0): got %d bytes want %d", got, 8*6)
	}
}

func TestParseBasisFile_ETC1SAlphaSlices(t *testing.T) {
	data := basisutest.BasisFile(basisutest.BasisOptions{
		TexFormat: basisu.TexFormatETC1S,
		HasAlpha:  true,
		Levels:    basisutest.MipChain(8, 8, 2),
	})
	f, err := basisu.ParseBasisFile(data)
	if err != nil {
		t.Fatalf("ParseBasisFile: %v", err)
	}
	if got := f.Header.TotalSlices; got != 4 {
		t.Fatalf("TotalSlices: got %d want 4", got)
	}
	info, err := f.ImageInfo(0)
	if err != nil {
		t.Fatalf("ImageInfo: %v", err)
	}
	if !info.HasAlpha {
		t.Fatalf("HasAlpha: got false")
	}
	if len(info.Levels) != 2 {
		t.Fatalf("levels: got %d want 2", len(info.Levels))
	}
}

func TestParseBasisFile_MultipleImages(t *testing.T) {
	data := basisutest.BasisFile(basisutest.BasisOptions{
		TexFormat: basisu.TexFormatUASTC4x4,
		Levels:    basisutest.MipChain(4, 4, 1),
		Images:    3,
	})
	f, err := basisu.ParseBasisFile(data)
	if err != nil {
		t.Fatalf("ParseBasisFile: %v", err)
	}
	if _, err := f.ImageInfo(2); err != nil {
		t.Fatalf("ImageInfo(2): %v", err)
	}
	if _, err := f.ImageInfo(3); err == nil {
		t.Fatalf("ImageInfo(3): expected error")
	}
}

func TestParseBasisFile_UASTCAlphaPerImage(t *testing.T) {
	data := basisutest.BasisFile(basisutest.BasisOptions{
		TexFormat:    basisu.TexFormatUASTC4x4,
		HasAlpha:     true,
		Levels:       basisutest.MipChain(4, 4, 1),
		Images:       2,
		OpaqueImages: 1,
	})
	f, err := basisu.ParseBasisFile(data)
	if err != nil {
		t.Fatalf("ParseBasisFile: %v", err)
	}
	if !f.Header.HasAlphaSlices() {
		t.Fatalf("header: want alpha flag set")
	}
	for image, want := range []bool{false, true} {
		info, err := f.ImageInfo(image)
		if err != nil {
			t.Fatalf("ImageInfo(%d): %v", image, err)
		}
		if info.HasAlpha != want {
			t.Fatalf("image %d: alpha got %v want %v", image, info.HasAlpha, want)
		}
	}
}

func TestBasisDecoder_OpaqueFirstImageUsesRGBTarget(t *testing.T) {
	dec := basisu.NewBasisDecoder(basisu.DecoderConfig{
		Policy:  fixedPolicy(basisu.PixelFormatCompressedDXT1RGB, basisu.PixelFormatCompressedDXT5RGBA),
		Backend: basisutest.NewFakeBackend(),
	})
	img, err := dec.Decode(basisutest.BasisFile(basisutest.BasisOptions{
		TexFormat:    basisu.TexFormatUASTC4x4,
		HasAlpha:     true,
		Levels:       basisutest.MipChain(4, 4, 1),
		Images:       2,
		OpaqueImages: 1,
	}))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer img.Release()
	if img.Format != basisu.PixelFormatCompressedDXT1RGB {
		t.Fatalf("format: got %s want DXT1", img.Format)
	}
}

func TestParseBasisFile_Rejects(t *testing.T) {
	good := basisutest.BasisFile(basisutest.BasisOptions{
		TexFormat: basisu.TexFormatUASTC4x4,
		Levels:    basisutest.MipChain(8, 8, 2),
	})

	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", good[:40]},
		{"signature", basisutest.Corrupt(good, 0)},
		{"header checksum", basisutest.Corrupt(good, 20)},
		{"data checksum", basisutest.Corrupt(good, len(good)-1)},
		{"truncated", good[:len(good)-4]},
	}
	for _, c := range cases {
		if _, err := basisu.ParseBasisFile(c.data); err == nil {
			t.Fatalf("%s: expected error", c.name)
		}
	}
}

func TestMarshalBasisHeader_RoundTrip(t *testing.T) {
	h := basisu.BasisHeader{
		Signature:   basisu.BasisSignature,
		Version:     basisu.BasisVersion,
		HeaderSize:  basisu.BasisHeaderSize,
		TotalSlices: 0x123456,
		TotalImages: 7,
		TexFormat:   basisu.TexFormatUASTC4x4,
		Flags:       basisu.BasisFlagHasAlphaSlices | basisu.BasisFlagSRGB,
		TexType:     basisu.TextureTypeCubemapArray,
		USPerFrame:  33333,
	}
	enc := basisu.MarshalBasisHeader(h)
	got, err := basisu.ParseBasisHeader(enc[:])
	if err != nil {
		t.Fatalf("ParseBasisHeader: %v", err)
	}
	if got != h {
		t.Fatalf("round trip: got %+v want %+v", got, h)
	}
	if !got.HasAlphaSlices() {
		t.Fatalf("HasAlphaSlices: got false")
	}
}
