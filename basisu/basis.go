package basisu

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// BasisSignature is the value of the first header field of a .basis file ("sB" on disk).
const BasisSignature = 0x4273

// BasisVersion is the only .basis file version this package reads.
const BasisVersion = 0x13

// BasisHeaderSize is the size in bytes of a .basis file header.
const BasisHeaderSize = 77

// SliceDescSize is the size in bytes of one .basis slice descriptor.
const SliceDescSize = 23

// BasisTexFormat is the payload codec of a .basis file.
type BasisTexFormat uint8

const (
	TexFormatETC1S    BasisTexFormat = 0
	TexFormatUASTC4x4 BasisTexFormat = 1
)

func (f BasisTexFormat) String() string {
	switch f {
	case TexFormatETC1S:
		return "ETC1S"
	case TexFormatUASTC4x4:
		return "UASTC4x4"
	default:
		return fmt.Sprintf("BasisTexFormat(%d)", uint8(f))
	}
}

// BasisTextureType is the layout of the images stored in a .basis file.
type BasisTextureType uint8

const (
	TextureType2D BasisTextureType = iota
	TextureType2DArray
	TextureTypeCubemapArray
	TextureTypeVideoFrames
	TextureTypeVolume
)

// Header flags.
const (
	BasisFlagETC1S              uint16 = 1 << 0
	BasisFlagYFlipped           uint16 = 1 << 1
	BasisFlagHasAlphaSlices     uint16 = 1 << 2
	BasisFlagUsesGlobalCodebook uint16 = 1 << 3
	BasisFlagSRGB               uint16 = 1 << 4
)

// Slice descriptor flags.
const (
	SliceFlagHasAlpha uint8 = 1 << 0
	SliceFlagIFrame   uint8 = 1 << 1
)

// BasisHeader is the fixed header at the start of every .basis file.
type BasisHeader struct {
	Signature   uint16
	Version     uint16
	HeaderSize  uint16
	HeaderCRC16 uint16

	DataSize  uint32
	DataCRC16 uint16

	TotalSlices uint32 // 24 bits
	TotalImages uint32 // 24 bits

	TexFormat  BasisTexFormat
	Flags      uint16
	TexType    BasisTextureType
	USPerFrame uint32 // 24 bits

	Reserved  uint32
	UserData0 uint32
	UserData1 uint32

	TotalEndpoints     uint16
	EndpointCBFileOfs  uint32
	EndpointCBFileSize uint32 // 24 bits
	TotalSelectors     uint16
	SelectorCBFileOfs  uint32
	SelectorCBFileSize uint32 // 24 bits
	TablesFileOfs      uint32
	TablesFileSize     uint32
	SliceDescFileOfs   uint32
	ExtendedFileOfs    uint32
	ExtendedFileSize   uint32
}

func (h BasisHeader) String() string {
	return fmt.Sprintf("basis v%#x %s, %d images, %d slices, flags %#x",
		h.Version, h.TexFormat, h.TotalImages, h.TotalSlices, h.Flags)
}

// HasAlphaSlices reports whether the file marks itself as carrying alpha.
func (h BasisHeader) HasAlphaSlices() bool { return h.Flags&BasisFlagHasAlphaSlices != 0 }

// SliceDesc describes one compressed slice (one level of one image, or its alpha plane).
type SliceDesc struct {
	ImageIndex uint32 // 24 bits
	LevelIndex uint8
	Flags      uint8

	OrigWidth  uint16
	OrigHeight uint16
	BlocksX    uint16
	BlocksY    uint16

	FileOfs   uint32
	FileSize  uint32
	DataCRC16 uint16
}

// BasisFile is a parsed and checksum-validated .basis file.
type BasisFile struct {
	Header BasisHeader
	Slices []SliceDesc

	data []byte
}

// ParseBasisHeader parses the fixed .basis header without validating checksums.
func ParseBasisHeader(data []byte) (BasisHeader, error) {
	if len(data) < BasisHeaderSize {
		return BasisHeader{}, ioErrUnexpectedEOF("basis header", BasisHeaderSize, len(data))
	}
	le := binary.LittleEndian
	h := BasisHeader{
		Signature:          le.Uint16(data[0:]),
		Version:            le.Uint16(data[2:]),
		HeaderSize:         le.Uint16(data[4:]),
		HeaderCRC16:        le.Uint16(data[6:]),
		DataSize:           le.Uint32(data[8:]),
		DataCRC16:          le.Uint16(data[12:]),
		TotalSlices:        decodeU24LE(data[14:17]),
		TotalImages:        decodeU24LE(data[17:20]),
		TexFormat:          BasisTexFormat(data[20]),
		Flags:              le.Uint16(data[21:]),
		TexType:            BasisTextureType(data[23]),
		USPerFrame:         decodeU24LE(data[24:27]),
		Reserved:           le.Uint32(data[27:]),
		UserData0:          le.Uint32(data[31:]),
		UserData1:          le.Uint32(data[35:]),
		TotalEndpoints:     le.Uint16(data[39:]),
		EndpointCBFileOfs:  le.Uint32(data[41:]),
		EndpointCBFileSize: decodeU24LE(data[45:48]),
		TotalSelectors:     le.Uint16(data[48:]),
		SelectorCBFileOfs:  le.Uint32(data[50:]),
		SelectorCBFileSize: decodeU24LE(data[54:57]),
		TablesFileOfs:      le.Uint32(data[57:]),
		TablesFileSize:     le.Uint32(data[61:]),
		SliceDescFileOfs:   le.Uint32(data[65:]),
		ExtendedFileOfs:    le.Uint32(data[69:]),
		ExtendedFileSize:   le.Uint32(data[73:]),
	}
	if h.Signature != BasisSignature {
		return BasisHeader{}, errors.New("basis: invalid signature")
	}
	if h.Version != BasisVersion {
		return BasisHeader{}, fmt.Errorf("basis: unsupported version %#x", h.Version)
	}
	if h.HeaderSize != BasisHeaderSize {
		return BasisHeader{}, fmt.Errorf("basis: invalid header size %d", h.HeaderSize)
	}
	return h, nil
}

// MarshalBasisHeader returns the on-disk encoding of h. Checksums are written as given.
func MarshalBasisHeader(h BasisHeader) [BasisHeaderSize]byte {
	var out [BasisHeaderSize]byte
	le := binary.LittleEndian
	le.PutUint16(out[0:], h.Signature)
	le.PutUint16(out[2:], h.Version)
	le.PutUint16(out[4:], h.HeaderSize)
	le.PutUint16(out[6:], h.HeaderCRC16)
	le.PutUint32(out[8:], h.DataSize)
	le.PutUint16(out[12:], h.DataCRC16)
	encodeU24LE(out[14:17], h.TotalSlices)
	encodeU24LE(out[17:20], h.TotalImages)
	out[20] = byte(h.TexFormat)
	le.PutUint16(out[21:], h.Flags)
	out[23] = byte(h.TexType)
	encodeU24LE(out[24:27], h.USPerFrame)
	le.PutUint32(out[27:], h.Reserved)
	le.PutUint32(out[31:], h.UserData0)
	le.PutUint32(out[35:], h.UserData1)
	le.PutUint16(out[39:], h.TotalEndpoints)
	le.PutUint32(out[41:], h.EndpointCBFileOfs)
	encodeU24LE(out[45:48], h.EndpointCBFileSize)
	le.PutUint16(out[48:], h.TotalSelectors)
	le.PutUint32(out[50:], h.SelectorCBFileOfs)
	encodeU24LE(out[54:57], h.SelectorCBFileSize)
	le.PutUint32(out[57:], h.TablesFileOfs)
	le.PutUint32(out[61:], h.TablesFileSize)
	le.PutUint32(out[65:], h.SliceDescFileOfs)
	le.PutUint32(out[69:], h.ExtendedFileOfs)
	le.PutUint32(out[73:], h.ExtendedFileSize)
	return out
}

// BasisHeaderCRC16 computes the header checksum over an encoded header.
func BasisHeaderCRC16(encoded []byte) uint16 {
	return crc16(encoded[8:BasisHeaderSize], 0)
}

// BasisCRC16 computes the checksum .basis files use for their data region and slices.
func BasisCRC16(data []byte) uint16 { return crc16(data, 0) }

func parseSliceDesc(b []byte) SliceDesc {
	le := binary.LittleEndian
	return SliceDesc{
		ImageIndex: decodeU24LE(b[0:3]),
		LevelIndex: b[3],
		Flags:      b[4],
		OrigWidth:  le.Uint16(b[5:]),
		OrigHeight: le.Uint16(b[7:]),
		BlocksX:    le.Uint16(b[9:]),
		BlocksY:    le.Uint16(b[11:]),
		FileOfs:    le.Uint32(b[13:]),
		FileSize:   le.Uint32(b[17:]),
		DataCRC16:  le.Uint16(b[21:]),
	}
}

// MarshalSliceDesc returns the on-disk encoding of s.
func MarshalSliceDesc(s SliceDesc) [SliceDescSize]byte {
	var out [SliceDescSize]byte
	le := binary.LittleEndian
	encodeU24LE(out[0:3], s.ImageIndex)
	out[3] = s.LevelIndex
	out[4] = s.Flags
	le.PutUint16(out[5:], s.OrigWidth)
	le.PutUint16(out[7:], s.OrigHeight)
	le.PutUint16(out[9:], s.BlocksX)
	le.PutUint16(out[11:], s.BlocksY)
	le.PutUint32(out[13:], s.FileOfs)
	le.PutUint32(out[17:], s.FileSize)
	le.PutUint16(out[21:], s.DataCRC16)
	return out
}

// ParseBasisFile parses a full .basis file and validates its structure and checksums.
//
// The returned file aliases data.
func ParseBasisFile(data []byte) (*BasisFile, error) {
	h, err := ParseBasisHeader(data)
	if err != nil {
		return nil, err
	}
	if got := BasisHeaderCRC16(data); got != h.HeaderCRC16 {
		return nil, fmt.Errorf("basis: header checksum mismatch: got %#04x want %#04x", got, h.HeaderCRC16)
	}
	if h.TexFormat != TexFormatETC1S && h.TexFormat != TexFormatUASTC4x4 {
		return nil, fmt.Errorf("basis: unknown tex format %d", h.TexFormat)
	}
	if h.TotalSlices == 0 || h.TotalImages == 0 || h.TotalImages > h.TotalSlices {
		return nil, errors.New("basis: invalid slice or image count")
	}

	size := uint64(len(data))
	if uint64(BasisHeaderSize)+uint64(h.DataSize) > size {
		return nil, ioErrUnexpectedEOF("basis data", BasisHeaderSize+int(h.DataSize), len(data))
	}
	if got := crc16(data[BasisHeaderSize:BasisHeaderSize+int(h.DataSize)], 0); got != h.DataCRC16 {
		return nil, fmt.Errorf("basis: data checksum mismatch: got %#04x want %#04x", got, h.DataCRC16)
	}

	if !inBounds(uint64(h.SliceDescFileOfs), uint64(h.TotalSlices)*SliceDescSize, size) {
		return nil, errors.New("basis: slice descriptors out of bounds")
	}
	if h.TexFormat == TexFormatETC1S && h.Flags&BasisFlagUsesGlobalCodebook == 0 {
		if h.TotalEndpoints == 0 || h.TotalSelectors == 0 {
			return nil, errors.New("basis: missing ETC1S codebooks")
		}
		if !inBounds(uint64(h.EndpointCBFileOfs), uint64(h.EndpointCBFileSize), size) ||
			!inBounds(uint64(h.SelectorCBFileOfs), uint64(h.SelectorCBFileSize), size) ||
			!inBounds(uint64(h.TablesFileOfs), uint64(h.TablesFileSize), size) {
			return nil, errors.New("basis: codebooks out of bounds")
		}
	}
	if h.ExtendedFileSize != 0 && !inBounds(uint64(h.ExtendedFileOfs), uint64(h.ExtendedFileSize), size) {
		return nil, errors.New("basis: extended data out of bounds")
	}

	slices := make([]SliceDesc, h.TotalSlices)
	for i := range slices {
		off := int(h.SliceDescFileOfs) + i*SliceDescSize
		s := parseSliceDesc(data[off : off+SliceDescSize])
		if err := s.validate(i, data); err != nil {
			return nil, err
		}
		if s.ImageIndex >= h.TotalImages {
			return nil, fmt.Errorf("basis: slice %d: image index %d out of range", i, s.ImageIndex)
		}
		slices[i] = s
	}

	return &BasisFile{Header: h, Slices: slices, data: data}, nil
}

func (s SliceDesc) validate(i int, data []byte) error {
	if s.OrigWidth == 0 || s.OrigHeight == 0 {
		return fmt.Errorf("basis: slice %d: zero dimension", i)
	}
	if int(s.BlocksX) != blocksFor(int(s.OrigWidth)) || int(s.BlocksY) != blocksFor(int(s.OrigHeight)) {
		return fmt.Errorf("basis: slice %d: block count %dx%d does not cover %dx%d",
			i, s.BlocksX, s.BlocksY, s.OrigWidth, s.OrigHeight)
	}
	if s.FileSize == 0 || !inBounds(uint64(s.FileOfs), uint64(s.FileSize), uint64(len(data))) {
		return fmt.Errorf("basis: slice %d: data out of bounds", i)
	}
	if got := crc16(data[s.FileOfs:s.FileOfs+s.FileSize], 0); got != s.DataCRC16 {
		return fmt.Errorf("basis: slice %d: checksum mismatch", i)
	}
	return nil
}

// SliceData returns the compressed bytes of slice i.
func (f *BasisFile) SliceData(i int) []byte {
	s := f.Slices[i]
	return f.data[s.FileOfs : s.FileOfs+s.FileSize]
}

// Bytes returns the file the BasisFile was parsed from.
func (f *BasisFile) Bytes() []byte { return f.data }

func (f *BasisFile) levelSlice(image, level int) (int, bool) {
	for i, s := range f.Slices {
		if int(s.ImageIndex) == image && int(s.LevelIndex) == level {
			return i, true
		}
	}
	return 0, false
}

// ImageInfo returns the dimensions, alpha flag and level table of one image.
//
// When a level has both a color and an alpha slice, the color slice describes the level.
// ETC1S alpha comes from the header; UASTC alpha from the image's level 0 slice.
func (f *BasisFile) ImageInfo(image int) (ImageInfo, error) {
	if image < 0 || image >= int(f.Header.TotalImages) {
		return ImageInfo{}, fmt.Errorf("basis: image %d out of range", image)
	}

	maxLevel := -1
	for _, s := range f.Slices {
		if int(s.ImageIndex) == image && int(s.LevelIndex) > maxLevel {
			maxLevel = int(s.LevelIndex)
		}
	}
	if maxLevel < 0 {
		return ImageInfo{}, fmt.Errorf("basis: image %d has no slices", image)
	}

	info := ImageInfo{HasAlpha: f.Header.HasAlphaSlices()}
	info.Levels = make([]LevelInfo, 0, maxLevel+1)
	for level := 0; level <= maxLevel; level++ {
		idx, ok := f.levelSlice(image, level)
		if !ok {
			return ImageInfo{}, fmt.Errorf("basis: image %d is missing level %d", image, level)
		}
		s := f.Slices[idx]
		info.Levels = append(info.Levels, LevelInfo{
			Index:       level,
			Width:       int(s.OrigWidth),
			Height:      int(s.OrigHeight),
			BlocksX:     int(s.BlocksX),
			BlocksY:     int(s.BlocksY),
			TotalBlocks: int(s.BlocksX) * int(s.BlocksY),
		})
	}
	info.Width = info.Levels[0].Width
	info.Height = info.Levels[0].Height
	if f.Header.TexFormat != TexFormatETC1S {
		// UASTC carries alpha per slice; the header flag covers every image.
		first, _ := f.levelSlice(image, 0)
		info.HasAlpha = f.Slices[first].Flags&SliceFlagHasAlpha != 0
	}
	return info, nil
}

func inBounds(off, n, size uint64) bool {
	return off <= size && n <= size-off
}

func blocksFor(texels int) int {
	return (texels + BlockDim - 1) / BlockDim
}

func decodeU24LE(b []byte) uint32 {
	// b must be at least 3 bytes.
	_ = b[2]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func encodeU24LE(dst []byte, v uint32) {
	// dst must be at least 3 bytes.
	_ = dst[2]
	if v > 0xFFFFFF {
		v = 0xFFFFFF
	}
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
}

func ioErrUnexpectedEOF(what string, want, got int) error {
	return fmt.Errorf("basisu: %s: unexpected EOF: want %d bytes, got %d", what, want, got)
}
