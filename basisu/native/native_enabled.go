//go:build basisu_native && cgo

package native

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/am-sokolov/go-basisu/basisu"
	nativecgo "github.com/am-sokolov/go-basisu/basisu/native/internal/transcoder"
)

func Enabled() bool { return true }

var (
	initOnce sync.Once
	initErr  error
)

// initTranscoder runs the process-wide transcoder table setup exactly once.
func initTranscoder() error {
	initOnce.Do(func() {
		initErr = errFromCode(nativecgo.Init(), "basisu_transcoder_init")
	})
	return initErr
}

func errFromCode(code int, op string) error {
	if code == 0 {
		return nil
	}
	if msg := nativecgo.ErrorString(code); msg != "" {
		return &basisu.Error{Code: codeToError(code), Msg: fmt.Sprintf("basisu/native: %s: %s", op, msg)}
	}
	return &basisu.Error{Code: codeToError(code), Msg: fmt.Sprintf("basisu/native: %s: error %d", op, code)}
}

func codeToError(code int) basisu.ErrorCode {
	switch code {
	case nativecgo.ErrBadContainer, nativecgo.ErrStartFailed:
		return basisu.ErrBadContainer
	case nativecgo.ErrOutOfMem:
		return basisu.ErrOutOfMem
	case nativecgo.ErrUnsupportedFormat:
		return basisu.ErrUnsupportedFormat
	default:
		return basisu.ErrTranscodeFailed
	}
}

// Backend transcodes through the native library. It is safe for concurrent use; the
// sessions it opens are not.
type Backend struct{}

// NewBackend initializes the native transcoder and returns a Backend.
func NewBackend() (basisu.Backend, error) {
	if err := initTranscoder(); err != nil {
		return nil, err
	}
	return &Backend{}, nil
}

func (b *Backend) Name() string { return "native" }

func (b *Backend) Init() error { return initTranscoder() }

func (b *Backend) OpenBasis(data []byte) (basisu.Session, error) {
	return b.open(data, nativecgo.OpenBasis, "start_transcoding")
}

func (b *Backend) OpenKTX2(data []byte) (basisu.Session, error) {
	if !basisu.KTX2Supported {
		return nil, &basisu.Error{Code: basisu.ErrUnsupportedType, Msg: "basisu/native: built without KTX2 support"}
	}
	return b.open(data, nativecgo.OpenKTX2, "ktx2 start_transcoding")
}

func (b *Backend) open(data []byte, open func(unsafe.Pointer, int) (unsafe.Pointer, int), op string) (basisu.Session, error) {
	if err := initTranscoder(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("basisu/native: empty input")
	}
	h, code := open(unsafe.Pointer(&data[0]), len(data))
	if err := errFromCode(code, op); err != nil {
		return nil, err
	}
	return &session{h: h}, nil
}

// session owns a C copy of the blob and the transcoder state built from it.
type session struct {
	h unsafe.Pointer
}

func (s *session) TranscodeLevel(level int, dst []byte, units int, f basisu.TranscoderFormat) error {
	if s.h == nil {
		return errors.New("basisu/native: session closed")
	}
	if !f.Valid() {
		return &basisu.Error{Code: basisu.ErrUnsupportedFormat, Msg: fmt.Sprintf("basisu/native: unknown format %s", f)}
	}
	if units <= 0 || len(dst) != units*f.BytesPerBlockOrPixel() {
		return fmt.Errorf("basisu/native: level %d: destination is %d bytes for %d units of %s", level, len(dst), units, f)
	}
	code := nativecgo.TranscodeLevel(s.h, level, unsafe.Pointer(&dst[0]), units, int(f))
	return errFromCode(code, fmt.Sprintf("transcode level %d", level))
}

func (s *session) Close() error {
	if s.h != nil {
		nativecgo.Close(s.h)
		s.h = nil
	}
	return nil
}

// cAllocator grows buffers with C realloc, so decoded images live outside the Go heap.
type cAllocator struct{}

// NewAllocator returns an allocator backed by C realloc and free. Buffers it returns must
// be released with Free (via basisu.Image.Release); the garbage collector never reclaims them.
func NewAllocator() (basisu.Allocator, error) { return cAllocator{}, nil }

func (cAllocator) Realloc(buf []byte, n int) ([]byte, error) {
	if n <= 0 || n < len(buf) {
		return nil, fmt.Errorf("basisu/native: invalid realloc from %d to %d bytes", len(buf), n)
	}
	p := nativecgo.Realloc(unsafe.Pointer(unsafe.SliceData(buf)), n)
	if p == nil {
		return nil, &basisu.Error{Code: basisu.ErrOutOfMem, Msg: fmt.Sprintf("basisu/native: realloc %d bytes", n)}
	}
	return unsafe.Slice((*byte)(p), n), nil
}

func (cAllocator) Free(buf []byte) {
	if buf == nil {
		return
	}
	nativecgo.Free(unsafe.Pointer(unsafe.SliceData(buf)))
}
