//go:build basisu_native && !cgo

package native

import (
	"errors"

	"github.com/am-sokolov/go-basisu/basisu"
)

var errNoCGO = errors.New("basisu/native: basisu_native set but CGO is disabled (set CGO_ENABLED=1)")

func Enabled() bool { return false }

func NewBackend() (basisu.Backend, error) { return nil, errNoCGO }

func NewAllocator() (basisu.Allocator, error) { return nil, errNoCGO }
