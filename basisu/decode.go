package basisu

import "fmt"

// levelSource is an opened container as seen by the level assembly loop.
type levelSource interface {
	Info() ImageInfo
	TranscodeLevel(level int, dst []byte, units int, f TranscoderFormat) error
}

// formatChecker is implemented by sources that can only produce some targets.
type formatChecker interface {
	CheckFormat(f TranscoderFormat) error
}

// decodeLevels transcodes every level of src into one buffer grown level by level.
//
// The target format is chosen once from the policy and used for all levels. On any error
// the buffer is returned to alloc and no Image is produced.
func decodeLevels(src levelSource, policy *FormatPolicy, alloc Allocator) (*Image, error) {
	info := src.Info()
	if len(info.Levels) == 0 {
		return nil, newError(ErrBadContainer, "basisu: container has no levels")
	}

	f := policy.SelectFormat(info.HasAlpha)
	unitBytes := f.BytesPerBlockOrPixel()
	if unitBytes == 0 {
		return nil, newError(ErrUnsupportedFormat, fmt.Sprintf("basisu: unknown target format %s", f))
	}

	if c, ok := src.(formatChecker); ok {
		if err := c.CheckFormat(f); err != nil {
			return nil, err
		}
	}

	var buf []byte
	fail := func(err error) (*Image, error) {
		alloc.Free(buf)
		return nil, err
	}

	layout := make([]LevelLayout, 0, len(info.Levels))
	written := 0
	for _, level := range info.Levels {
		units := level.Units(f)
		total, size, ok := assembledSize(written, units, unitBytes)
		if !ok {
			return fail(newError(ErrOutOfMem, fmt.Sprintf("basisu: level %d: output size overflows", level.Index)))
		}

		grown, err := alloc.Realloc(buf, total)
		if err != nil {
			return fail(wrapError(ErrOutOfMem, fmt.Sprintf("basisu: level %d: grow output to %d bytes", level.Index, total), err))
		}
		buf = grown

		if err := src.TranscodeLevel(level.Index, buf[written:total], units, f); err != nil {
			return fail(wrapError(ErrorCodeOf(err),
				fmt.Sprintf("basisu: level %d: transcode to %s", level.Index, f), err))
		}

		layout = append(layout, LevelLayout{
			Width:  level.Width,
			Height: level.Height,
			Offset: written,
			Size:   size,
		})
		written = total
	}

	return &Image{
		Data:    buf,
		Width:   info.Width,
		Height:  info.Height,
		Format:  f.PixelFormat(),
		Mipmaps: len(layout),
		Levels:  layout,
		alloc:   alloc,
	}, nil
}

// sessionSource feeds levels through a backend session.
type sessionSource struct {
	info    ImageInfo
	session Session
}

func (s *sessionSource) Info() ImageInfo { return s.info }

func (s *sessionSource) TranscodeLevel(level int, dst []byte, units int, f TranscoderFormat) error {
	return s.session.TranscodeLevel(level, dst, units, f)
}

// rawSource converts uncompressed KTX2 levels in Go.
type rawSource struct {
	info ImageInfo
	file *KTX2File
}

func (s *rawSource) Info() ImageInfo { return s.info }

func (s *rawSource) CheckFormat(f TranscoderFormat) error {
	if !f.IsUncompressed() {
		return newError(ErrUnsupportedFormat,
			fmt.Sprintf("basisu: uncompressed payloads cannot be transcoded to %s", f))
	}
	return nil
}

func (s *rawSource) TranscodeLevel(level int, dst []byte, units int, f TranscoderFormat) error {
	data, err := s.file.LevelData(level)
	if err != nil {
		return err
	}
	l := s.info.Levels[level]
	return convertRaw(data, s.file.Payload.bytesPerTexel(), l.Width, l.Height, dst, f)
}
