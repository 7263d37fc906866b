package texload

import (
	"log"
	"os"
	"sync"

	"github.com/am-sokolov/go-basisu/basisu"
	"github.com/am-sokolov/go-basisu/basisu/native"
)

var (
	defaultOnce   sync.Once
	defaultLoader *Loader
)

// Default returns the process-wide Loader used by the package-level functions. It uses
// basisu.DefaultPolicy and, in builds where it is enabled, the native backend and C heap.
func Default() *Loader {
	defaultOnce.Do(func() {
		opts := []Option{
			WithPolicy(basisu.DefaultPolicy()),
			WithLogger(log.New(os.Stderr, "[texload] ", log.LstdFlags)),
		}
		if native.Enabled() {
			if b, err := native.NewBackend(); err == nil {
				opts = append(opts, WithBackend(b))
			}
			if a, err := native.NewAllocator(); err == nil {
				opts = append(opts, WithAllocator(a))
			}
		}
		defaultLoader = New(opts...)
	})
	return defaultLoader
}

// LoadImage loads path with the default Loader.
func LoadImage(path string) basisu.Image { return Default().LoadImage(path) }

// LoadImageFromMemory decodes data with the default Loader.
func LoadImageFromMemory(typeTag string, data []byte) basisu.Image {
	return Default().LoadImageFromMemory(typeTag, data)
}

// LoadTexture loads path with the default Loader. It returns an empty Texture unless an
// uploader was installed with SetUploader.
func LoadTexture(path string) Texture { return Default().LoadTexture(path) }

// SetUploader installs the uploader used by LoadTexture on the default Loader.
func SetUploader(u Uploader) { Default().SetUploader(u) }

// ConfigureRGBFormat sets the default policy's target for content without alpha.
func ConfigureRGBFormat(pf basisu.PixelFormat) { Default().ConfigureRGBFormat(pf) }

// ConfigureRGBAFormat sets the default policy's target for content with alpha.
func ConfigureRGBAFormat(pf basisu.PixelFormat) { Default().ConfigureRGBAFormat(pf) }
