// Package basisutest builds synthetic .basis and .ktx2 blobs and provides fake
// collaborators for tests of code that loads Basis Universal textures.
//
// The blobs are structurally valid (offsets, level tables, checksums) but their slice
// payloads are filler bytes; only a fake backend can "transcode" them.
package basisutest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"github.com/am-sokolov/go-basisu/basisu"
)

// Level gives the dimensions of one mip level.
type Level struct {
	Width  int
	Height int
}

// MipChain returns the full mip chain for a w x h base level, n levels deep.
func MipChain(w, h, n int) []Level {
	levels := make([]Level, n)
	for i := range levels {
		levels[i] = Level{Width: max(1, w>>i), Height: max(1, h>>i)}
	}
	return levels
}

// BasisOptions describes a synthetic .basis file.
type BasisOptions struct {
	TexFormat basisu.BasisTexFormat
	HasAlpha  bool
	Levels    []Level
	Images    int // defaults to 1
	// OpaqueImages leaves the alpha slice flag off the first n UASTC images while
	// the header still reports alpha.
	OpaqueImages int
}

// BasisFile returns an encoded .basis file with valid header, slice table and checksums.
func BasisFile(opts BasisOptions) []byte {
	images := max(opts.Images, 1)
	alphaSlices := opts.HasAlpha && opts.TexFormat == basisu.TexFormatETC1S

	var slices []basisu.SliceDesc
	for img := 0; img < images; img++ {
		for i, l := range opts.Levels {
			s := basisu.SliceDesc{
				ImageIndex: uint32(img),
				LevelIndex: uint8(i),
				OrigWidth:  uint16(l.Width),
				OrigHeight: uint16(l.Height),
				BlocksX:    uint16((l.Width + 3) / 4),
				BlocksY:    uint16((l.Height + 3) / 4),
			}
			if opts.HasAlpha && !alphaSlices && img >= opts.OpaqueImages {
				s.Flags |= basisu.SliceFlagHasAlpha
			}
			slices = append(slices, s)
			if alphaSlices {
				a := s
				a.Flags |= basisu.SliceFlagHasAlpha
				slices = append(slices, a)
			}
		}
	}

	h := basisu.BasisHeader{
		Signature:        basisu.BasisSignature,
		Version:          basisu.BasisVersion,
		HeaderSize:       basisu.BasisHeaderSize,
		TotalSlices:      uint32(len(slices)),
		TotalImages:      uint32(images),
		TexFormat:        opts.TexFormat,
		SliceDescFileOfs: basisu.BasisHeaderSize,
	}
	if opts.TexFormat == basisu.TexFormatETC1S {
		h.Flags |= basisu.BasisFlagETC1S
	}
	if opts.HasAlpha {
		h.Flags |= basisu.BasisFlagHasAlphaSlices
	}

	var body bytes.Buffer
	body.Grow(len(slices) * basisu.SliceDescSize)
	body.Write(make([]byte, len(slices)*basisu.SliceDescSize))

	if opts.TexFormat == basisu.TexFormatETC1S {
		h.TotalEndpoints = 1
		h.EndpointCBFileOfs = uint32(basisu.BasisHeaderSize + body.Len())
		h.EndpointCBFileSize = 4
		body.Write([]byte{1, 2, 3, 4})
		h.TotalSelectors = 1
		h.SelectorCBFileOfs = uint32(basisu.BasisHeaderSize + body.Len())
		h.SelectorCBFileSize = 4
		body.Write([]byte{5, 6, 7, 8})
		h.TablesFileOfs = uint32(basisu.BasisHeaderSize + body.Len())
		h.TablesFileSize = 4
		body.Write([]byte{9, 10, 11, 12})
	}

	for i := range slices {
		payload := filler(i, 8*int(slices[i].BlocksX)*int(slices[i].BlocksY))
		slices[i].FileOfs = uint32(basisu.BasisHeaderSize + body.Len())
		slices[i].FileSize = uint32(len(payload))
		slices[i].DataCRC16 = basisu.BasisCRC16(payload)
		body.Write(payload)
	}

	out := body.Bytes()
	for i, s := range slices {
		enc := basisu.MarshalSliceDesc(s)
		copy(out[i*basisu.SliceDescSize:], enc[:])
	}

	h.DataSize = uint32(len(out))
	h.DataCRC16 = basisu.BasisCRC16(out)
	enc := basisu.MarshalBasisHeader(h)
	h.HeaderCRC16 = basisu.BasisHeaderCRC16(enc[:])
	enc = basisu.MarshalBasisHeader(h)

	return append(enc[:], out...)
}

// KTX2Options describes a synthetic KTX2 file.
type KTX2Options struct {
	Payload          basisu.KTX2Payload
	HasAlpha         bool
	Width            int
	Height           int
	Levels           int    // defaults to 1
	Supercompression uint32 // none, Zstd or ZLIB for raw payloads; ETC1S always uses BasisLZ
}

// KTX2File returns an encoded KTX2 file. Raw payload levels are filled by Pixel.
func KTX2File(opts KTX2Options) []byte {
	levels := max(opts.Levels, 1)
	h := basisu.KTX2Header{
		PixelWidth:             uint32(opts.Width),
		PixelHeight:            uint32(opts.Height),
		FaceCount:              1,
		LevelCount:             uint32(levels),
		SupercompressionScheme: opts.Supercompression,
	}

	var dfd []byte
	switch opts.Payload {
	case basisu.PayloadETC1S:
		h.SupercompressionScheme = basisu.SupercompressionBasisLZ
		chans := []uint8{0}
		if opts.HasAlpha {
			chans = append(chans, 15)
		}
		dfd = buildDFD(163, 3, chans, 8)
	case basisu.PayloadUASTC:
		ch := uint8(0)
		if opts.HasAlpha {
			ch = 3
		}
		dfd = buildDFD(166, 3, []uint8{ch}, 16)
	case basisu.PayloadRGBA8:
		h.VkFormat = basisu.VkFormatR8G8B8A8Unorm
		h.TypeSize = 1
		chans := []uint8{0, 1, 2}
		if opts.HasAlpha {
			chans = append(chans, 15)
		}
		dfd = buildDFD(1, 0, chans, 4)
	case basisu.PayloadRGB8:
		h.VkFormat = basisu.VkFormatR8G8B8Unorm
		h.TypeSize = 1
		dfd = buildDFD(1, 0, []uint8{0, 1, 2}, 3)
	}

	indexEnd := basisu.KTX2HeaderSize + levels*basisu.KTX2LevelIndexEntrySize
	h.DFDByteOffset = uint32(indexEnd)
	h.DFDByteLength = uint32(len(dfd))

	var body bytes.Buffer
	body.Write(dfd)

	if h.SupercompressionScheme == basisu.SupercompressionBasisLZ {
		sgd := filler(99, 32)
		h.SGDByteOffset = uint64(indexEnd + body.Len())
		h.SGDByteLength = uint64(len(sgd))
		body.Write(sgd)
	}

	index := make([]basisu.KTX2Level, levels)
	for i := levels - 1; i >= 0; i-- {
		w := max(1, opts.Width>>i)
		hh := max(1, opts.Height>>i)
		raw := levelBytes(opts.Payload, i, w, hh)
		stored := compress(h.SupercompressionScheme, raw)
		for body.Len()%8 != 0 {
			body.WriteByte(0)
		}
		index[i] = basisu.KTX2Level{
			ByteOffset:             uint64(indexEnd + body.Len()),
			ByteLength:             uint64(len(stored)),
			UncompressedByteLength: uint64(len(raw)),
		}
		body.Write(stored)
	}

	enc := basisu.MarshalKTX2Header(h)
	out := append([]byte(nil), enc[:]...)
	for _, l := range index {
		var e [basisu.KTX2LevelIndexEntrySize]byte
		binary.LittleEndian.PutUint64(e[0:], l.ByteOffset)
		binary.LittleEndian.PutUint64(e[8:], l.ByteLength)
		binary.LittleEndian.PutUint64(e[16:], l.UncompressedByteLength)
		out = append(out, e[:]...)
	}
	return append(out, body.Bytes()...)
}

// Pixel returns the RGBA texel stored at (x, y) of level in raw KTX2 fixtures.
func Pixel(level, x, y int) [4]uint8 {
	return [4]uint8{uint8(x * 16), uint8(y * 16), uint8(level * 64), uint8(255 - level*32)}
}

func levelBytes(p basisu.KTX2Payload, level, w, h int) []byte {
	switch p {
	case basisu.PayloadRGBA8, basisu.PayloadRGB8:
		bpp := 4
		if p == basisu.PayloadRGB8 {
			bpp = 3
		}
		out := make([]byte, 0, w*h*bpp)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				px := Pixel(level, x, y)
				out = append(out, px[:bpp]...)
			}
		}
		return out
	default:
		return filler(level, 16*((w+3)/4)*((h+3)/4))
	}
}

func compress(scheme uint32, raw []byte) []byte {
	switch scheme {
	case basisu.SupercompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			panic(err)
		}
		defer enc.Close()
		return enc.EncodeAll(raw, nil)
	case basisu.SupercompressionZLIB:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			panic(err)
		}
		if err := w.Close(); err != nil {
			panic(err)
		}
		return buf.Bytes()
	default:
		return raw
	}
}

// buildDFD returns a data format descriptor with one basic block.
// texelDim is the block dimension minus one (3 for 4x4 blocks), bytesPlane0 the block size.
func buildDFD(model uint8, texelDim uint8, channels []uint8, bytesPlane0 uint8) []byte {
	blockSize := 24 + 16*len(channels)
	out := make([]byte, 4+blockSize)
	le := binary.LittleEndian
	le.PutUint32(out[0:], uint32(len(out)))
	b := out[4:]
	le.PutUint32(b[0:], 0)
	le.PutUint32(b[4:], 2|uint32(blockSize)<<16)
	b[8] = model
	b[9] = 1  // BT709
	b[10] = 1 // linear
	b[12], b[13] = texelDim, texelDim
	b[16] = bytesPlane0
	for i, c := range channels {
		s := b[24+16*i:]
		bitLen := 8*int(bytesPlane0)/len(channels) - 1
		le.PutUint16(s[0:], uint16(i*(bitLen+1)))
		s[2] = uint8(bitLen)
		s[3] = c
		le.PutUint32(s[12:], 0xFFFFFFFF)
	}
	return out
}

func filler(seed, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(seed*31 + i*7 + 1)
	}
	return out
}

// Corrupt returns a copy of data with byte off flipped.
func Corrupt(data []byte, off int) []byte {
	out := append([]byte(nil), data...)
	out[off] ^= 0xFF
	return out
}

// LevelFill is the byte FakeBackend writes into every unit of a level.
func LevelFill(level int) byte { return byte(0xA0 + level) }

// ErrInjected is returned by fakes configured to fail.
var ErrInjected = errors.New("basisutest: injected failure")

// FakeBackend is a basisu.Backend that fills each level with LevelFill(level).
type FakeBackend struct {
	// FailInit makes Init fail.
	FailInit bool
	// FailOpen makes OpenBasis and OpenKTX2 fail.
	FailOpen bool
	// FailLevel, when >= 0, makes TranscodeLevel fail on that level.
	FailLevel int

	inits  atomic.Int32
	opens  atomic.Int32
	closes atomic.Int32

	mu    sync.Mutex
	calls []TranscodeCall
}

// TranscodeCall records one TranscodeLevel invocation.
type TranscodeCall struct {
	Level  int
	Units  int
	Bytes  int
	Format basisu.TranscoderFormat
}

// NewFakeBackend returns a FakeBackend that never fails.
func NewFakeBackend() *FakeBackend { return &FakeBackend{FailLevel: -1} }

func (b *FakeBackend) Name() string { return "fake" }

func (b *FakeBackend) Init() error {
	b.inits.Add(1)
	if b.FailInit {
		return ErrInjected
	}
	return nil
}

func (b *FakeBackend) OpenBasis(data []byte) (basisu.Session, error) { return b.open() }

func (b *FakeBackend) OpenKTX2(data []byte) (basisu.Session, error) { return b.open() }

func (b *FakeBackend) open() (basisu.Session, error) {
	if b.FailOpen {
		return nil, ErrInjected
	}
	b.opens.Add(1)
	return &fakeSession{b: b}, nil
}

// Inits returns how many times Init was called.
func (b *FakeBackend) Inits() int { return int(b.inits.Load()) }

// Opens returns how many sessions were opened.
func (b *FakeBackend) Opens() int { return int(b.opens.Load()) }

// Closes returns how many sessions were closed.
func (b *FakeBackend) Closes() int { return int(b.closes.Load()) }

// Calls returns the TranscodeLevel calls seen so far.
func (b *FakeBackend) Calls() []TranscodeCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]TranscodeCall(nil), b.calls...)
}

type fakeSession struct {
	b *FakeBackend
}

func (s *fakeSession) TranscodeLevel(level int, dst []byte, units int, f basisu.TranscoderFormat) error {
	s.b.mu.Lock()
	s.b.calls = append(s.b.calls, TranscodeCall{Level: level, Units: units, Bytes: len(dst), Format: f})
	s.b.mu.Unlock()

	if level == s.b.FailLevel {
		return ErrInjected
	}
	if want := units * f.BytesPerBlockOrPixel(); len(dst) != want {
		return fmt.Errorf("basisutest: level %d: got %d byte destination, want %d", level, len(dst), want)
	}
	for i := range dst {
		dst[i] = LevelFill(level)
	}
	return nil
}

func (s *fakeSession) Close() error {
	s.b.closes.Add(1)
	return nil
}

// TrackingAllocator is a heap allocator that counts live buffers and can fail on demand.
type TrackingAllocator struct {
	// FailOn, when > 0, makes the FailOn-th Realloc call fail.
	FailOn int

	mu       sync.Mutex
	heap     basisu.HeapAllocator
	reallocs int
	live     int
	frees    int
}

func (a *TrackingAllocator) Realloc(buf []byte, n int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reallocs++
	if a.FailOn > 0 && a.reallocs == a.FailOn {
		return nil, ErrInjected
	}
	out, err := a.heap.Realloc(buf, n)
	if err != nil {
		return nil, err
	}
	if buf == nil {
		a.live++
	}
	return out, nil
}

func (a *TrackingAllocator) Free(buf []byte) {
	if buf == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.live--
	a.frees++
}

// Live returns the number of buffers handed out and not yet freed.
func (a *TrackingAllocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.live
}

// Reallocs returns the number of Realloc calls.
func (a *TrackingAllocator) Reallocs() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reallocs
}

// Frees returns the number of Free calls with a non-nil buffer.
func (a *TrackingAllocator) Frees() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frees
}
