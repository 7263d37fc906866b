package main

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/webp"
	"golang.org/x/image/bmp"

	"github.com/am-sokolov/go-basisu/basisu"
)

// previewImage wraps level 0 of an RGBA32 image without copying.
func previewImage(img *basisu.Image) (*image.NRGBA, error) {
	if img.Format != basisu.PixelFormatUncompressedR8G8B8A8 {
		return nil, fmt.Errorf("preview needs UNCOMPRESSED_R8G8B8A8 output, got %s (try -rgb rgba32 -rgba rgba32)", img.Format)
	}
	l := img.Levels[0]
	if l.Size != l.Width*l.Height*4 {
		return nil, fmt.Errorf("preview: level 0 is %d bytes, want %d", l.Size, l.Width*l.Height*4)
	}
	return &image.NRGBA{
		Pix:    img.Level(0),
		Stride: l.Width * 4,
		Rect:   image.Rect(0, 0, l.Width, l.Height),
	}, nil
}

func encodePreview(w io.Writer, ext string, m image.Image) error {
	switch strings.ToLower(ext) {
	case ".png":
		return png.Encode(w, m)
	case ".bmp":
		return bmp.Encode(w, m)
	case ".webp":
		return webp.Encode(w, m, webp.Options{Lossless: true})
	default:
		return fmt.Errorf("preview: unsupported extension %q (want .png, .bmp or .webp)", ext)
	}
}

func writePreview(path string, img *basisu.Image) error {
	m, err := previewImage(img)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := encodePreview(bw, filepath.Ext(path), m); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
