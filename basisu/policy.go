package basisu

import "sync"

// ChannelKind selects which of the two policy slots a configuration call targets.
type ChannelKind uint8

const (
	// ChannelRGB is the slot used for content without alpha.
	ChannelRGB ChannelKind = iota
	// ChannelRGBA is the slot used for content with alpha.
	ChannelRGBA
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelRGB:
		return "rgb"
	case ChannelRGBA:
		return "rgba"
	default:
		return "unknown"
	}
}

// FormatPolicy holds the transcode targets for opaque and alpha-bearing content.
//
// A FormatPolicy is safe for concurrent use. Each decode reads the selector once, so all
// levels of one image share a single target even if the policy changes mid-decode.
type FormatPolicy struct {
	mu   sync.RWMutex
	rgb  TranscoderFormat
	rgba TranscoderFormat
}

// NewFormatPolicy returns a policy holding the defaults for the build target.
func NewFormatPolicy() *FormatPolicy {
	return &FormatPolicy{rgb: defaultRGBFormat, rgba: defaultRGBAFormat}
}

var (
	defaultPolicyOnce sync.Once
	defaultPolicy     *FormatPolicy
)

// DefaultPolicy returns the process-wide policy, created on first use.
func DefaultPolicy() *FormatPolicy {
	defaultPolicyOnce.Do(func() { defaultPolicy = NewFormatPolicy() })
	return defaultPolicy
}

// SelectFormat returns the RGBA target if hasAlpha is set and the RGB target otherwise.
func (p *FormatPolicy) SelectFormat(hasAlpha bool) TranscoderFormat {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if hasAlpha {
		return p.rgba
	}
	return p.rgb
}

// RGB returns the target used for content without alpha.
func (p *FormatPolicy) RGB() TranscoderFormat { return p.SelectFormat(false) }

// RGBA returns the target used for content with alpha.
func (p *FormatPolicy) RGBA() TranscoderFormat { return p.SelectFormat(true) }

// Configure maps pf to a transcode target and stores it in the slot for kind.
//
// Tags without a transcode target store FormatRGBA32. Unknown kinds are ignored.
func (p *FormatPolicy) Configure(kind ChannelKind, pf PixelFormat) {
	f := pf.TranscoderFormat()
	p.mu.Lock()
	defer p.mu.Unlock()
	switch kind {
	case ChannelRGB:
		p.rgb = f
	case ChannelRGBA:
		p.rgba = f
	}
}

// ConfigureRGB is shorthand for Configure(ChannelRGB, pf).
func (p *FormatPolicy) ConfigureRGB(pf PixelFormat) { p.Configure(ChannelRGB, pf) }

// ConfigureRGBA is shorthand for Configure(ChannelRGBA, pf).
func (p *FormatPolicy) ConfigureRGBA(pf PixelFormat) { p.Configure(ChannelRGBA, pf) }
