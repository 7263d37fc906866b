//go:build basisu_native && cgo

// Package transcoder is the thin cgo layer over bridge.cpp.
package transcoder

/*
#cgo CFLAGS: -O3 -I${SRCDIR}/upstream
#cgo CXXFLAGS: -O3 -std=c++17 -I${SRCDIR}/upstream
#cgo darwin LDFLAGS: -lm
#cgo linux LDFLAGS: -lstdc++ -lm -pthread

#include <stdlib.h>
#include "bridge.h"
*/
import "C"

import "unsafe"

// Result codes returned by the bridge.
const (
	OK                   = 0
	ErrBadParam          = 1
	ErrBadContainer      = 2
	ErrStartFailed       = 3
	ErrTranscodeFailed   = 4
	ErrUnsupportedFormat = 5
	ErrOutOfMem          = 6
	ErrNoKTX2            = 7
)

func ErrorString(code int) string {
	if code == OK {
		return ""
	}
	s := C.basisu_native_error_string(C.int(code))
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

func Init() int { return int(C.basisu_native_init()) }

func Realloc(p unsafe.Pointer, size int) unsafe.Pointer {
	if size <= 0 {
		return nil
	}
	return C.realloc(p, C.size_t(size))
}

func Free(p unsafe.Pointer) {
	if p != nil {
		C.free(p)
	}
}

// OpenBasis copies data into C memory and starts a .basis transcoding session on it.
func OpenBasis(data unsafe.Pointer, n int) (unsafe.Pointer, int) {
	var s unsafe.Pointer
	code := C.basisu_native_open_basis(data, C.size_t(n), (*unsafe.Pointer)(unsafe.Pointer(&s)))
	return s, int(code)
}

// OpenKTX2 copies data into C memory and starts a KTX2 transcoding session on it.
func OpenKTX2(data unsafe.Pointer, n int) (unsafe.Pointer, int) {
	var s unsafe.Pointer
	code := C.basisu_native_open_ktx2(data, C.size_t(n), (*unsafe.Pointer)(unsafe.Pointer(&s)))
	return s, int(code)
}

// TranscodeLevel writes level of image 0 (layer 0, face 0) as format into dst.
// format uses the numbering of basisu.TranscoderFormat.
func TranscodeLevel(s unsafe.Pointer, level int, dst unsafe.Pointer, units int, format int) int {
	return int(C.basisu_native_transcode_level(s, C.uint(level), dst, C.uint(units), C.int(format)))
}

func Close(s unsafe.Pointer) {
	if s != nil {
		C.basisu_native_close(s)
	}
}
