package basisu

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

var ktx2Identifier = [12]byte{0xAB, 'K', 'T', 'X', ' ', '2', '0', 0xBB, '\r', '\n', 0x1A, '\n'}

// KTX2HeaderSize is the size of the identifier plus the fixed KTX2 header.
const KTX2HeaderSize = 80

// KTX2LevelIndexEntrySize is the size of one level index entry.
const KTX2LevelIndexEntrySize = 24

// Supercompression schemes.
const (
	SupercompressionNone    uint32 = 0
	SupercompressionBasisLZ uint32 = 1
	SupercompressionZstd    uint32 = 2
	SupercompressionZLIB    uint32 = 3
)

// Vulkan formats accepted for uncompressed payloads. Basis payloads use VK_FORMAT_UNDEFINED.
const (
	VkFormatUndefined     uint32 = 0
	VkFormatR8G8B8Unorm   uint32 = 23
	VkFormatR8G8B8SRGB    uint32 = 29
	VkFormatR8G8B8A8Unorm uint32 = 37
	VkFormatR8G8B8A8SRGB  uint32 = 43
)

// Data format descriptor color models and channel ids.
const (
	dfdModelRGBSDA = 1
	dfdModelETC1S  = 163
	dfdModelUASTC  = 166

	dfdChannelAlpha     = 15 // RGBSDA alpha, ETC1S AAA
	dfdChannelUASTCRGBA = 3
	dfdChannelUASTCRRRG = 5

	dfdBasicBlockHeaderSize = 24
	dfdSampleSize           = 16
)

// KTX2Payload identifies how the level data of a KTX2 file is encoded.
type KTX2Payload uint8

const (
	PayloadUnknown KTX2Payload = iota
	PayloadETC1S
	PayloadUASTC
	PayloadRGBA8
	PayloadRGB8
)

func (p KTX2Payload) String() string {
	switch p {
	case PayloadETC1S:
		return "ETC1S"
	case PayloadUASTC:
		return "UASTC"
	case PayloadRGBA8:
		return "RGBA8"
	case PayloadRGB8:
		return "RGB8"
	default:
		return "unknown"
	}
}

// NeedsBackend reports whether levels of this payload must be transcoded by a Backend.
func (p KTX2Payload) NeedsBackend() bool { return p == PayloadETC1S || p == PayloadUASTC }

// KTX2Header is the fixed header that follows the KTX2 identifier.
type KTX2Header struct {
	VkFormat               uint32
	TypeSize               uint32
	PixelWidth             uint32
	PixelHeight            uint32
	PixelDepth             uint32
	LayerCount             uint32
	FaceCount              uint32
	LevelCount             uint32
	SupercompressionScheme uint32

	DFDByteOffset uint32
	DFDByteLength uint32
	KVDByteOffset uint32
	KVDByteLength uint32
	SGDByteOffset uint64
	SGDByteLength uint64
}

func (h KTX2Header) String() string {
	return fmt.Sprintf("KTX2 vkFormat %d, %dx%dx%d texels, %d levels, %d layers, %d faces, supercompression %d",
		h.VkFormat, h.PixelWidth, h.PixelHeight, h.PixelDepth,
		h.Levels(), h.LayerCount, h.FaceCount, h.SupercompressionScheme)
}

// Levels returns the number of stored levels; a level count of 0 stores one level.
func (h KTX2Header) Levels() int {
	if h.LevelCount == 0 {
		return 1
	}
	return int(h.LevelCount)
}

// KTX2Level is one entry of the level index.
type KTX2Level struct {
	ByteOffset             uint64
	ByteLength             uint64
	UncompressedByteLength uint64
}

// KTX2File is a parsed KTX2 file.
type KTX2File struct {
	Header  KTX2Header
	Levels  []KTX2Level
	Payload KTX2Payload

	ColorModel uint8
	Channels   []uint8 // channel id of each DFD sample
	HasAlpha   bool

	data []byte
}

// ParseKTX2Header parses the identifier and fixed header.
func ParseKTX2Header(data []byte) (KTX2Header, error) {
	if len(data) < KTX2HeaderSize {
		return KTX2Header{}, ioErrUnexpectedEOF("ktx2 header", KTX2HeaderSize, len(data))
	}
	if !bytes.Equal(data[:12], ktx2Identifier[:]) {
		return KTX2Header{}, errors.New("ktx2: invalid identifier")
	}
	le := binary.LittleEndian
	h := KTX2Header{
		VkFormat:               le.Uint32(data[12:]),
		TypeSize:               le.Uint32(data[16:]),
		PixelWidth:             le.Uint32(data[20:]),
		PixelHeight:            le.Uint32(data[24:]),
		PixelDepth:             le.Uint32(data[28:]),
		LayerCount:             le.Uint32(data[32:]),
		FaceCount:              le.Uint32(data[36:]),
		LevelCount:             le.Uint32(data[40:]),
		SupercompressionScheme: le.Uint32(data[44:]),
		DFDByteOffset:          le.Uint32(data[48:]),
		DFDByteLength:          le.Uint32(data[52:]),
		KVDByteOffset:          le.Uint32(data[56:]),
		KVDByteLength:          le.Uint32(data[60:]),
		SGDByteOffset:          le.Uint64(data[64:]),
		SGDByteLength:          le.Uint64(data[72:]),
	}
	if err := h.validate(); err != nil {
		return KTX2Header{}, err
	}
	return h, nil
}

func (h KTX2Header) validate() error {
	if h.PixelWidth == 0 {
		return errors.New("ktx2: invalid header: zero width")
	}
	if h.PixelDepth > 1 {
		return errors.New("ktx2: invalid header: 3D textures are not supported")
	}
	if h.FaceCount != 1 && h.FaceCount != 6 {
		return fmt.Errorf("ktx2: invalid header: face count %d", h.FaceCount)
	}
	if h.SupercompressionScheme > SupercompressionZLIB {
		return fmt.Errorf("ktx2: unknown supercompression scheme %d", h.SupercompressionScheme)
	}
	maxDim := h.PixelWidth
	if h.PixelHeight > maxDim {
		maxDim = h.PixelHeight
	}
	if maxLevels := bits.Len32(maxDim); h.Levels() > maxLevels {
		return fmt.Errorf("ktx2: invalid header: %d levels for a %dx%d image", h.Levels(), h.PixelWidth, h.PixelHeight)
	}
	return nil
}

// MarshalKTX2Header returns the identifier followed by the encoded header.
func MarshalKTX2Header(h KTX2Header) [KTX2HeaderSize]byte {
	var out [KTX2HeaderSize]byte
	copy(out[:12], ktx2Identifier[:])
	le := binary.LittleEndian
	le.PutUint32(out[12:], h.VkFormat)
	le.PutUint32(out[16:], h.TypeSize)
	le.PutUint32(out[20:], h.PixelWidth)
	le.PutUint32(out[24:], h.PixelHeight)
	le.PutUint32(out[28:], h.PixelDepth)
	le.PutUint32(out[32:], h.LayerCount)
	le.PutUint32(out[36:], h.FaceCount)
	le.PutUint32(out[40:], h.LevelCount)
	le.PutUint32(out[44:], h.SupercompressionScheme)
	le.PutUint32(out[48:], h.DFDByteOffset)
	le.PutUint32(out[52:], h.DFDByteLength)
	le.PutUint32(out[56:], h.KVDByteOffset)
	le.PutUint32(out[60:], h.KVDByteLength)
	le.PutUint64(out[64:], h.SGDByteOffset)
	le.PutUint64(out[72:], h.SGDByteLength)
	return out
}

// ParseKTX2File parses a full KTX2 file and classifies its payload.
//
// The returned file aliases data.
func ParseKTX2File(data []byte) (*KTX2File, error) {
	h, err := ParseKTX2Header(data)
	if err != nil {
		return nil, err
	}
	size := uint64(len(data))

	n := h.Levels()
	indexEnd := uint64(KTX2HeaderSize) + uint64(n)*KTX2LevelIndexEntrySize
	if indexEnd > size {
		return nil, ioErrUnexpectedEOF("ktx2 level index", int(indexEnd), len(data))
	}
	le := binary.LittleEndian
	levels := make([]KTX2Level, n)
	for i := range levels {
		b := data[KTX2HeaderSize+i*KTX2LevelIndexEntrySize:]
		l := KTX2Level{
			ByteOffset:             le.Uint64(b[0:]),
			ByteLength:             le.Uint64(b[8:]),
			UncompressedByteLength: le.Uint64(b[16:]),
		}
		if l.ByteLength == 0 || !inBounds(l.ByteOffset, l.ByteLength, size) {
			return nil, fmt.Errorf("ktx2: level %d: data out of bounds", i)
		}
		levels[i] = l
	}

	if h.DFDByteLength == 0 || !inBounds(uint64(h.DFDByteOffset), uint64(h.DFDByteLength), size) {
		return nil, errors.New("ktx2: data format descriptor out of bounds")
	}
	if h.KVDByteLength != 0 && !inBounds(uint64(h.KVDByteOffset), uint64(h.KVDByteLength), size) {
		return nil, errors.New("ktx2: key/value data out of bounds")
	}
	if h.SGDByteLength != 0 && !inBounds(h.SGDByteOffset, h.SGDByteLength, size) {
		return nil, errors.New("ktx2: supercompression global data out of bounds")
	}

	f := &KTX2File{Header: h, Levels: levels, data: data}
	if err := f.parseDFD(data[h.DFDByteOffset : h.DFDByteOffset+h.DFDByteLength]); err != nil {
		return nil, err
	}
	if err := f.classify(); err != nil {
		return nil, err
	}
	if err := f.validateLevels(); err != nil {
		return nil, err
	}
	return f, nil
}

// Largest output a supercompressed level can inflate to per stored byte. A Zstandard block
// header plus one RLE byte can expand to a full 128 KiB block; Deflate tops out near 1032:1.
const (
	zstdMaxRatio = (128 << 10) / 4
	zlibMaxRatio = 1032
)

// validateLevels checks the stored and claimed size of every UASTC or uncompressed level
// against the size its dimensions imply, and bounds supercompressed claims by the stored bytes.
func (f *KTX2File) validateLevels() error {
	unitBytes, perPixel := f.Payload.levelUnit()
	if unitBytes == 0 {
		return nil
	}
	images := uint64(max(f.Header.LayerCount, 1)) * uint64(f.Header.FaceCount)
	info := f.ImageInfo()
	for i, l := range f.Levels {
		units := uint64(info.Levels[i].TotalBlocks)
		if perPixel {
			units = uint64(info.Levels[i].Width) * uint64(info.Levels[i].Height)
		}
		want, ok := mulSize(units, uint64(unitBytes), images)
		if !ok {
			return fmt.Errorf("ktx2: level %d: size overflows", i)
		}
		got := l.ByteLength
		switch f.Header.SupercompressionScheme {
		case SupercompressionZstd:
			got = l.UncompressedByteLength
			if got/zstdMaxRatio > l.ByteLength {
				return fmt.Errorf("ktx2: level %d: %d bytes cannot inflate to %d", i, l.ByteLength, got)
			}
		case SupercompressionZLIB:
			got = l.UncompressedByteLength
			if got/zlibMaxRatio > l.ByteLength {
				return fmt.Errorf("ktx2: level %d: %d bytes cannot inflate to %d", i, l.ByteLength, got)
			}
		}
		if got != want {
			return fmt.Errorf("ktx2: level %d: %d bytes, want %d", i, got, want)
		}
	}
	return nil
}

// mulSize multiplies sizes, reporting false on uint64 overflow.
func mulSize(a, b, c uint64) (uint64, bool) {
	hi, ab := bits.Mul64(a, b)
	if hi != 0 {
		return 0, false
	}
	hi, abc := bits.Mul64(ab, c)
	return abc, hi == 0
}

func (f *KTX2File) parseDFD(dfd []byte) error {
	// dfdTotalSize followed by the basic descriptor block.
	if len(dfd) < 4+dfdBasicBlockHeaderSize {
		return errors.New("ktx2: data format descriptor too short")
	}
	le := binary.LittleEndian
	if total := le.Uint32(dfd[0:]); int(total) > len(dfd) {
		return errors.New("ktx2: data format descriptor size mismatch")
	}
	block := dfd[4:]
	blockSize := int(le.Uint32(block[4:]) >> 16)
	if blockSize < dfdBasicBlockHeaderSize || blockSize > len(block) {
		return errors.New("ktx2: invalid descriptor block size")
	}
	f.ColorModel = block[8]
	samples := (blockSize - dfdBasicBlockHeaderSize) / dfdSampleSize
	f.Channels = make([]uint8, samples)
	for i := range f.Channels {
		f.Channels[i] = block[dfdBasicBlockHeaderSize+i*dfdSampleSize+3] & 0x0F
	}
	return nil
}

func (f *KTX2File) hasChannel(id uint8) bool {
	for _, c := range f.Channels {
		if c == id {
			return true
		}
	}
	return false
}

func (f *KTX2File) classify() error {
	h := f.Header
	switch h.VkFormat {
	case VkFormatUndefined:
		switch f.ColorModel {
		case dfdModelETC1S:
			if h.SupercompressionScheme != SupercompressionBasisLZ || h.SGDByteLength == 0 {
				return errors.New("ktx2: ETC1S payload without BasisLZ global data")
			}
			f.Payload = PayloadETC1S
			f.HasAlpha = f.hasChannel(dfdChannelAlpha)
		case dfdModelUASTC:
			if h.SupercompressionScheme != SupercompressionNone && h.SupercompressionScheme != SupercompressionZstd {
				return fmt.Errorf("ktx2: UASTC payload with supercompression %d", h.SupercompressionScheme)
			}
			f.Payload = PayloadUASTC
			f.HasAlpha = len(f.Channels) > 0 &&
				(f.Channels[0] == dfdChannelUASTCRGBA || f.Channels[0] == dfdChannelUASTCRRRG)
		default:
			return fmt.Errorf("ktx2: unsupported color model %d", f.ColorModel)
		}
	case VkFormatR8G8B8A8Unorm, VkFormatR8G8B8A8SRGB:
		f.Payload = PayloadRGBA8
		f.HasAlpha = f.ColorModel != dfdModelRGBSDA || f.hasChannel(dfdChannelAlpha)
	case VkFormatR8G8B8Unorm, VkFormatR8G8B8SRGB:
		f.Payload = PayloadRGB8
	default:
		return fmt.Errorf("ktx2: unsupported vkFormat %d", h.VkFormat)
	}

	if !f.Payload.NeedsBackend() && h.SupercompressionScheme == SupercompressionBasisLZ {
		return errors.New("ktx2: BasisLZ supercompression on an uncompressed payload")
	}
	return nil
}

// Bytes returns the file the KTX2File was parsed from.
func (f *KTX2File) Bytes() []byte { return f.data }

// Width returns the base level width.
func (f *KTX2File) Width() int { return int(f.Header.PixelWidth) }

// Height returns the base level height; 1D textures report 1.
func (f *KTX2File) Height() int {
	if f.Header.PixelHeight == 0 {
		return 1
	}
	return int(f.Header.PixelHeight)
}

// ImageInfo returns the dimensions, alpha flag and level table of layer 0, face 0.
func (f *KTX2File) ImageInfo() ImageInfo {
	info := ImageInfo{Width: f.Width(), Height: f.Height(), HasAlpha: f.HasAlpha}
	info.Levels = make([]LevelInfo, len(f.Levels))
	for i := range info.Levels {
		w := max(1, info.Width>>i)
		h := max(1, info.Height>>i)
		bx, by := blocksFor(w), blocksFor(h)
		info.Levels[i] = LevelInfo{
			Index:       i,
			Width:       w,
			Height:      h,
			BlocksX:     bx,
			BlocksY:     by,
			TotalBlocks: bx * by,
		}
	}
	return info
}

// levelUnit returns the bytes per stored unit and whether units are pixels rather than
// 4x4 blocks. ETC1S reports 0: its slices are sized by the BasisLZ global data.
func (p KTX2Payload) levelUnit() (int, bool) {
	switch p {
	case PayloadUASTC:
		return 16, false
	case PayloadRGBA8, PayloadRGB8:
		return p.bytesPerTexel(), true
	default:
		return 0, false
	}
}

// bytesPerTexel returns the texel size of uncompressed payloads.
func (p KTX2Payload) bytesPerTexel() int {
	switch p {
	case PayloadRGBA8:
		return 4
	case PayloadRGB8:
		return 3
	default:
		return 0
	}
}

// LevelData returns level i with any Zstd or zlib supercompression removed.
//
// BasisLZ data is returned as stored; only a Backend can decode it.
func (f *KTX2File) LevelData(i int) ([]byte, error) {
	l := f.Levels[i]
	raw := f.data[l.ByteOffset : l.ByteOffset+l.ByteLength]
	switch f.Header.SupercompressionScheme {
	case SupercompressionNone, SupercompressionBasisLZ:
		return raw, nil
	case SupercompressionZstd:
		return inflateZstd(raw, l.UncompressedByteLength)
	case SupercompressionZLIB:
		return inflateZlib(raw, l.UncompressedByteLength)
	default:
		return nil, fmt.Errorf("ktx2: unknown supercompression scheme %d", f.Header.SupercompressionScheme)
	}
}

func inflateZstd(src []byte, want uint64) ([]byte, error) {
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(max(want, 1)))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	// want is validated against the level dimensions; DecodeAll grows past the initial capacity.
	out, err := dec.DecodeAll(src, make([]byte, 0, min(want, uint64(len(src))*64)))
	if err != nil {
		return nil, fmt.Errorf("ktx2: zstd: %w", err)
	}
	if uint64(len(out)) != want {
		return nil, fmt.Errorf("ktx2: zstd: inflated %d bytes, want %d", len(out), want)
	}
	return out, nil
}

func inflateZlib(src []byte, want uint64) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("ktx2: zlib: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, int64(want)+1))
	if err != nil {
		return nil, fmt.Errorf("ktx2: zlib: %w", err)
	}
	if uint64(len(out)) != want {
		return nil, fmt.Errorf("ktx2: zlib: inflated %d bytes, want %d", len(out), want)
	}
	return out, nil
}
