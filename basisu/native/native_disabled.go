//go:build !basisu_native

package native

import (
	"errors"

	"github.com/am-sokolov/go-basisu/basisu"
)

var errDisabled = errors.New("basisu/native: disabled (build with -tags basisu_native and CGO_ENABLED=1)")

// Enabled reports whether the CGO native implementation is available in this build.
func Enabled() bool { return false }

func NewBackend() (basisu.Backend, error) { return nil, errDisabled }

func NewAllocator() (basisu.Allocator, error) { return nil, errDisabled }
