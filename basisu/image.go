package basisu

// LevelInfo describes one mip level of a container image.
type LevelInfo struct {
	Index  int
	Width  int
	Height int

	BlocksX     int
	BlocksY     int
	TotalBlocks int
}

// Units returns the number of output units the level occupies in f: pixels for
// uncompressed targets, 4x4 blocks otherwise.
func (l LevelInfo) Units(f TranscoderFormat) int {
	if f.IsUncompressed() {
		return l.Width * l.Height
	}
	return l.TotalBlocks
}

// ImageInfo is the container metadata a decoder needs before transcoding.
type ImageInfo struct {
	Width    int
	Height   int
	HasAlpha bool
	Levels   []LevelInfo
}

// LevelLayout locates one transcoded level inside Image.Data.
type LevelLayout struct {
	Width  int
	Height int
	Offset int
	Size   int
}

// Image is a decoded texture: every mip level, transcoded to one format, laid out
// contiguously in ascending level order with no padding between levels.
//
// A nil Data means the decode failed, whatever the other fields say.
type Image struct {
	Data    []byte
	Width   int
	Height  int
	Format  PixelFormat
	Mipmaps int
	Levels  []LevelLayout

	alloc Allocator
}

// Valid reports whether img holds pixel data.
func (img *Image) Valid() bool { return img != nil && img.Data != nil }

// Level returns the bytes of mip level i.
func (img *Image) Level(i int) []byte {
	l := img.Levels[i]
	return img.Data[l.Offset : l.Offset+l.Size]
}

// Release returns the pixel buffer to the allocator that produced it and clears img.
// It is safe to call more than once.
func (img *Image) Release() {
	if img == nil {
		return
	}
	if img.Data != nil && img.alloc != nil {
		img.alloc.Free(img.Data)
	}
	*img = Image{}
}
