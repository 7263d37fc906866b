package texload

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/am-sokolov/go-basisu/basisu"
)

const tracerName = "github.com/am-sokolov/go-basisu/texload"

// Container identifies a supported container format.
type Container string

const (
	ContainerBasis Container = "basis"
	ContainerKTX2  Container = "ktx2"
)

// ParseContainer maps a type tag such as ".basis", "KTX2" or "ktx2" onto a Container.
// Matching ignores case and a leading dot. Builds without KTX2 support reject "ktx2".
func ParseContainer(tag string) (Container, bool) {
	s := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "."))
	switch Container(s) {
	case ContainerBasis:
		return ContainerBasis, true
	case ContainerKTX2:
		return ContainerKTX2, basisu.KTX2Supported
	default:
		return "", false
	}
}

// Option configures a Loader.
type Option func(*Loader)

// WithPolicy sets the format policy shared by both decoders.
func WithPolicy(p *basisu.FormatPolicy) Option {
	return func(l *Loader) { l.policy = p }
}

// WithBackend sets the transcoder backend used for ETC1S and UASTC payloads.
func WithBackend(b basisu.Backend) Option {
	return func(l *Loader) { l.backend = b }
}

// WithAllocator sets the allocator that owns decoded pixel buffers.
func WithAllocator(a basisu.Allocator) Option {
	return func(l *Loader) { l.alloc = a }
}

// WithReadFile replaces os.ReadFile for LoadImage and LoadTexture.
func WithReadFile(fn func(path string) ([]byte, error)) Option {
	return func(l *Loader) { l.readFile = fn }
}

// WithUploader sets the collaborator that turns images into textures.
func WithUploader(u Uploader) Option {
	return func(l *Loader) { l.uploader = u }
}

// WithLogger sets the logger for decode failures. A nil logger discards output.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithMetrics records decode counts, latency and output size.
func WithMetrics(m *Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

// WithTracer sets the tracer for decode spans. The default uses the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(l *Loader) { l.tracer = t }
}

// Loader decodes texture containers. It is safe for concurrent use.
type Loader struct {
	policy   *basisu.FormatPolicy
	backend  basisu.Backend
	alloc    basisu.Allocator
	readFile func(string) ([]byte, error)
	logger   *log.Logger
	metrics  *Metrics
	tracer   trace.Tracer

	initOnce sync.Once
	decoders map[Container]basisu.Decoder

	uploadMu sync.RWMutex
	uploader Uploader
}

// New returns a Loader. Without options it uses basisu.DefaultPolicy, no backend, the Go
// heap and os.ReadFile.
func New(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	if l.policy == nil {
		l.policy = basisu.DefaultPolicy()
	}
	if l.readFile == nil {
		l.readFile = os.ReadFile
	}
	if l.logger == nil {
		l.logger = log.New(io.Discard, "", 0)
	}
	if l.tracer == nil {
		l.tracer = otel.Tracer(tracerName)
	}
	return l
}

// Policy returns the format policy the loader's decoders read.
func (l *Loader) Policy() *basisu.FormatPolicy { return l.policy }

// ConfigureRGBFormat sets the target for content without alpha.
func (l *Loader) ConfigureRGBFormat(pf basisu.PixelFormat) { l.policy.ConfigureRGB(pf) }

// ConfigureRGBAFormat sets the target for content with alpha.
func (l *Loader) ConfigureRGBAFormat(pf basisu.PixelFormat) { l.policy.ConfigureRGBA(pf) }

// init runs the backend's one-time initialization and builds the decoders. A backend that
// fails to initialize is dropped, so only payloads that need it fail.
func (l *Loader) init() {
	l.initOnce.Do(func() {
		backend := l.backend
		if backend != nil {
			if err := backend.Init(); err != nil {
				l.logger.Printf("texload: backend init failed backend=%s err=%v", backend.Name(), err)
				backend = nil
			}
		}
		cfg := basisu.DecoderConfig{Policy: l.policy, Backend: backend, Allocator: l.alloc}
		l.decoders = map[Container]basisu.Decoder{
			ContainerBasis: basisu.NewBasisDecoder(cfg),
		}
		if basisu.KTX2Supported {
			l.decoders[ContainerKTX2] = basisu.NewKTX2Decoder(cfg)
		}
	})
}

// Decode transcodes data, whose container is named by typeTag, into an image.
func (l *Loader) Decode(ctx context.Context, typeTag string, data []byte) (*basisu.Image, error) {
	if typeTag == "" || len(data) == 0 {
		return nil, &basisu.Error{Code: basisu.ErrEmptyInput, Msg: "texload: empty type tag or data"}
	}
	l.init()

	container, ok := ParseContainer(typeTag)
	if !ok {
		return nil, &basisu.Error{Code: basisu.ErrUnsupportedType, Msg: fmt.Sprintf("texload: unsupported type %q", typeTag)}
	}

	_, span := l.tracer.Start(ctx, "texload.Decode", trace.WithAttributes(
		attribute.String("texload.container", string(container)),
		attribute.Int("texload.input_bytes", len(data)),
	))
	defer span.End()

	start := time.Now()
	img, err := l.decoders[container].Decode(data)
	l.metrics.observe(container, err, time.Since(start), img)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, basisu.ErrorString(basisu.ErrorCodeOf(err)))
		l.logger.Printf("texload: decode failed type=%s err=%v", container, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("texload.format", img.Format.String()),
		attribute.Int("texload.width", img.Width),
		attribute.Int("texload.height", img.Height),
		attribute.Int("texload.mipmaps", img.Mipmaps),
		attribute.Int("texload.output_bytes", len(img.Data)),
	)
	return img, nil
}

// DecodeFile reads path and decodes it, taking the type from the file extension.
func (l *Loader) DecodeFile(ctx context.Context, path string) (*basisu.Image, error) {
	data, err := l.readFile(path)
	if err != nil {
		l.logger.Printf("texload: read failed path=%s err=%v", path, err)
		return nil, fmt.Errorf("texload: read %s: %w", path, err)
	}
	return l.Decode(ctx, filepath.Ext(path), data)
}

// LoadImageFromMemory is Decode with failures reported as an empty image.
func (l *Loader) LoadImageFromMemory(typeTag string, data []byte) basisu.Image {
	img, err := l.Decode(context.Background(), typeTag, data)
	if err != nil {
		return basisu.Image{}
	}
	return *img
}

// LoadImage is DecodeFile with failures reported as an empty image.
func (l *Loader) LoadImage(path string) basisu.Image {
	img, err := l.DecodeFile(context.Background(), path)
	if err != nil {
		return basisu.Image{}
	}
	return *img
}

// SetUploader replaces the uploader used by later LoadTexture calls.
func (l *Loader) SetUploader(u Uploader) {
	l.uploadMu.Lock()
	l.uploader = u
	l.uploadMu.Unlock()
}

func (l *Loader) currentUploader() Uploader {
	l.uploadMu.RLock()
	defer l.uploadMu.RUnlock()
	return l.uploader
}

// LoadTexture decodes path, uploads the image and releases it. Failures return an empty
// Texture.
func (l *Loader) LoadTexture(path string) Texture {
	uploader := l.currentUploader()
	if uploader == nil {
		l.logger.Printf("texload: no uploader configured path=%s", path)
		return Texture{}
	}
	img, err := l.DecodeFile(context.Background(), path)
	if err != nil {
		return Texture{}
	}
	defer img.Release()

	tex, err := uploader.Upload(img)
	if err != nil {
		l.logger.Printf("texload: upload failed path=%s err=%v", path, err)
		return Texture{}
	}
	return tex
}
