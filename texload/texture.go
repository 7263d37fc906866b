package texload

import "github.com/am-sokolov/go-basisu/basisu"

// Texture is a GPU texture handle as returned by an Uploader. The zero value means no
// texture.
type Texture struct {
	ID      uint32
	Width   int
	Height  int
	Mipmaps int
	Format  basisu.PixelFormat
}

// Valid reports whether t refers to an uploaded texture.
func (t Texture) Valid() bool { return t.ID != 0 }

// Uploader copies a decoded image to the GPU. The image is released after Upload returns,
// so implementations must not retain img.Data.
type Uploader interface {
	Upload(img *basisu.Image) (Texture, error)
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(img *basisu.Image) (Texture, error)

func (f UploaderFunc) Upload(img *basisu.Image) (Texture, error) { return f(img) }
