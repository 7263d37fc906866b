package basisu_test

import (
	"errors"
	"testing"

	"github.com/am-sokolov/go-basisu/basisu"
)

func TestErrorString(t *testing.T) {
	cases := []struct {
		code basisu.ErrorCode
		want string
	}{
		{basisu.Success, "SUCCESS"},
		{basisu.ErrBadContainer, "ERR_BAD_CONTAINER"},
		{basisu.ErrOutOfMem, "ERR_OUT_OF_MEM"},
		{basisu.ErrTranscodeFailed, "ERR_TRANSCODE_FAILED"},
		{basisu.ErrUnsupportedFormat, "ERR_UNSUPPORTED_FORMAT"},
		{basisu.ErrNoBackend, "ERR_NO_BACKEND"},
		{basisu.ErrUnsupportedType, "ERR_UNSUPPORTED_TYPE"},
		{basisu.ErrEmptyInput, "ERR_EMPTY_INPUT"},
	}
	for _, c := range cases {
		if got := basisu.ErrorString(c.code); got != c.want {
			t.Fatalf("ErrorString(%d): got %q want %q", uint32(c.code), got, c.want)
		}
	}
	if got := basisu.ErrorString(basisu.ErrorCode(0xDEADBEEF)); got != "" {
		t.Fatalf("ErrorString(unknown): got %q want %q", got, "")
	}
}

func TestErrorCodeOf(t *testing.T) {
	if got := basisu.ErrorCodeOf(nil); got != basisu.Success {
		t.Fatalf("ErrorCodeOf(nil): got %v want %v", got, basisu.Success)
	}

	_, err := basisu.NewBasisDecoder(basisu.DecoderConfig{}).Decode([]byte("not a basis file"))
	if got := basisu.ErrorCodeOf(err); got != basisu.ErrBadContainer {
		t.Fatalf("ErrorCodeOf(bad container): got %v want %v", got, basisu.ErrBadContainer)
	}
	if !errors.Is(err, &basisu.Error{Code: basisu.ErrBadContainer}) {
		t.Fatalf("errors.Is(bad container): got false for %v", err)
	}
	if errors.Is(err, &basisu.Error{Code: basisu.ErrOutOfMem}) {
		t.Fatalf("errors.Is(out of mem): got true for %v", err)
	}

	if got := basisu.ErrorCodeOf(errors.New("some other error")); got != basisu.ErrTranscodeFailed {
		t.Fatalf("ErrorCodeOf(foreign): got %v want %v", got, basisu.ErrTranscodeFailed)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := &basisu.Error{Code: basisu.ErrTranscodeFailed, Msg: "basisu: level 0", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is(cause): got false")
	}
	if got, want := err.Error(), "basisu: level 0: cause"; got != want {
		t.Fatalf("Error(): got %q want %q", got, want)
	}
}
