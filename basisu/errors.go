package basisu

import "errors"

// ErrorCode classifies a load failure.
type ErrorCode uint32

const (
	// Success means no error.
	Success ErrorCode = 0

	// ErrBadContainer means the blob is not a valid container of the expected format, or the
	// transcoder refused to start on it.
	ErrBadContainer ErrorCode = 1

	// ErrOutOfMem means growing the output buffer failed.
	ErrOutOfMem ErrorCode = 2

	// ErrTranscodeFailed means a level failed to transcode.
	ErrTranscodeFailed ErrorCode = 3

	// ErrUnsupportedFormat means the payload cannot be transcoded to the selected target.
	ErrUnsupportedFormat ErrorCode = 4

	// ErrNoBackend means the payload needs a transcoder backend and none is configured.
	ErrNoBackend ErrorCode = 5

	// ErrUnsupportedType means the caller's type tag names no known container format.
	ErrUnsupportedType ErrorCode = 6

	// ErrEmptyInput means the caller passed no data or no type tag.
	ErrEmptyInput ErrorCode = 7
)

// ErrorString returns the symbolic name of code, or "" for unknown codes.
func ErrorString(code ErrorCode) string {
	switch code {
	case Success:
		return "SUCCESS"
	case ErrBadContainer:
		return "ERR_BAD_CONTAINER"
	case ErrOutOfMem:
		return "ERR_OUT_OF_MEM"
	case ErrTranscodeFailed:
		return "ERR_TRANSCODE_FAILED"
	case ErrUnsupportedFormat:
		return "ERR_UNSUPPORTED_FORMAT"
	case ErrNoBackend:
		return "ERR_NO_BACKEND"
	case ErrUnsupportedType:
		return "ERR_UNSUPPORTED_TYPE"
	case ErrEmptyInput:
		return "ERR_EMPTY_INPUT"
	default:
		return ""
	}
}

// Error is a typed error that carries an ErrorCode and, optionally, the underlying cause.
type Error struct {
	Code ErrorCode
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Msg
	if msg == "" {
		if s := ErrorString(e.Code); s != "" {
			msg = "basisu: " + s
		} else {
			msg = "basisu: error"
		}
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by code, so errors.Is(err, &Error{Code: ErrOutOfMem}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Code == e.Code
}

// ErrorCodeOf returns the code carried by err, or Success for nil.
//
// For errors that carry no code it returns ErrTranscodeFailed.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrTranscodeFailed
}

func newError(code ErrorCode, msg string) error {
	return &Error{Code: code, Msg: msg}
}

func wrapError(code ErrorCode, msg string, err error) error {
	return &Error{Code: code, Msg: msg, Err: err}
}
