package basisu

import (
	"fmt"
	"math"
	"slices"
)

// Allocator owns the memory behind a decoded Image.
//
// Realloc returns a buffer of length n whose first len(buf) bytes equal buf. On failure it
// returns an error and buf remains valid and owned by the caller. Free releases a buffer
// previously returned by Realloc; Free(nil) is a no-op.
type Allocator interface {
	Realloc(buf []byte, n int) ([]byte, error)
	Free(buf []byte)
}

// maxHeapBytes is the largest slice the Go runtime will allocate on 64-bit platforms.
const maxHeapBytes = min(1<<48, math.MaxInt)

// HeapAllocator allocates from the Go heap, optionally refusing buffers larger than Limit.
type HeapAllocator struct {
	// Limit is the largest buffer Realloc will produce. Zero means no limit.
	Limit int
}

// NewHeapAllocator returns a HeapAllocator with the given byte limit (0 = unlimited).
func NewHeapAllocator(limit int) *HeapAllocator {
	return &HeapAllocator{Limit: limit}
}

func (a *HeapAllocator) Realloc(buf []byte, n int) ([]byte, error) {
	if n < len(buf) {
		return nil, fmt.Errorf("basisu: realloc to %d bytes would shrink a %d byte buffer", n, len(buf))
	}
	if a.Limit > 0 && n > a.Limit {
		return nil, fmt.Errorf("basisu: %d bytes exceeds allocation limit of %d", n, a.Limit)
	}
	if n > maxHeapBytes {
		return nil, fmt.Errorf("basisu: %d bytes exceeds the addressable heap", n)
	}
	return slices.Grow(buf, n-len(buf))[:n], nil
}

func (a *HeapAllocator) Free(buf []byte) {}

// assembledSize returns written + units*unitBytes, or false if it does not fit in an int.
func assembledSize(written, units, unitBytes int) (int, int, bool) {
	if units < 0 || unitBytes <= 0 {
		return 0, 0, false
	}
	if units > 0 && unitBytes > math.MaxInt/units {
		return 0, 0, false
	}
	size := units * unitBytes
	if written > math.MaxInt-size {
		return 0, 0, false
	}
	return written + size, size, true
}
