package basisu

// Decoder turns one container blob into an Image.
type Decoder interface {
	Decode(data []byte) (*Image, error)
}

// DecoderConfig holds the collaborators shared by both container decoders.
// The zero value uses DefaultPolicy, an unlimited heap allocator and no backend.
type DecoderConfig struct {
	Policy    *FormatPolicy
	Backend   Backend
	Allocator Allocator
}

func (c DecoderConfig) policy() *FormatPolicy {
	if c.Policy != nil {
		return c.Policy
	}
	return DefaultPolicy()
}

func (c DecoderConfig) allocator() Allocator {
	if c.Allocator != nil {
		return c.Allocator
	}
	return NewHeapAllocator(0)
}

// BasisDecoder decodes .basis files. Every .basis payload needs a Backend.
type BasisDecoder struct {
	DecoderConfig
}

// NewBasisDecoder returns a .basis decoder using cfg.
func NewBasisDecoder(cfg DecoderConfig) *BasisDecoder {
	return &BasisDecoder{DecoderConfig: cfg}
}

// Decode transcodes image 0 of a .basis file, every level, into one buffer.
func (d *BasisDecoder) Decode(data []byte) (*Image, error) {
	file, err := ParseBasisFile(data)
	if err != nil {
		return nil, wrapError(ErrBadContainer, "basisu: invalid .basis file", err)
	}
	info, err := file.ImageInfo(0)
	if err != nil {
		return nil, wrapError(ErrBadContainer, "basisu: invalid .basis file", err)
	}
	if d.Backend == nil {
		return nil, newError(ErrNoBackend, "basisu: "+file.Header.TexFormat.String()+" payload requires a transcoder backend")
	}

	session, err := d.Backend.OpenBasis(data)
	if err != nil {
		return nil, wrapError(ErrBadContainer, "basisu: start transcoding", err)
	}
	defer session.Close()

	return decodeLevels(&sessionSource{info: info, session: session}, d.policy(), d.allocator())
}

// KTX2Decoder decodes KTX2 files. ETC1S and UASTC payloads need a Backend; 8-bit RGB and
// RGBA payloads are converted in Go to uncompressed targets.
type KTX2Decoder struct {
	DecoderConfig
}

// NewKTX2Decoder returns a KTX2 decoder using cfg.
func NewKTX2Decoder(cfg DecoderConfig) *KTX2Decoder {
	return &KTX2Decoder{DecoderConfig: cfg}
}

// Decode transcodes layer 0, face 0 of a KTX2 file, every level, into one buffer.
func (d *KTX2Decoder) Decode(data []byte) (*Image, error) {
	file, err := ParseKTX2File(data)
	if err != nil {
		return nil, wrapError(ErrBadContainer, "basisu: invalid .ktx2 file", err)
	}
	info := file.ImageInfo()

	if !file.Payload.NeedsBackend() {
		return decodeLevels(&rawSource{info: info, file: file}, d.policy(), d.allocator())
	}
	if d.Backend == nil {
		return nil, newError(ErrNoBackend, "basisu: "+file.Payload.String()+" payload requires a transcoder backend")
	}

	session, err := d.Backend.OpenKTX2(data)
	if err != nil {
		return nil, wrapError(ErrBadContainer, "basisu: start transcoding", err)
	}
	defer session.Close()

	return decodeLevels(&sessionSource{info: info, session: session}, d.policy(), d.allocator())
}
