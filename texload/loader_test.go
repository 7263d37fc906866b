package texload_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/am-sokolov/go-basisu/basisu"
	"github.com/am-sokolov/go-basisu/basisu/basisutest"
	"github.com/am-sokolov/go-basisu/texload"
)

type fixture struct {
	backend *basisutest.FakeBackend
	alloc   *basisutest.TrackingAllocator
	logs    *bytes.Buffer
	loader  *texload.Loader
}

func newFixture(opts ...texload.Option) *fixture {
	f := &fixture{
		backend: basisutest.NewFakeBackend(),
		alloc:   &basisutest.TrackingAllocator{},
		logs:    &bytes.Buffer{},
	}
	policy := basisu.NewFormatPolicy()
	policy.ConfigureRGB(basisu.PixelFormatCompressedDXT1RGB)
	policy.ConfigureRGBA(basisu.PixelFormatCompressedDXT5RGBA)
	base := []texload.Option{
		texload.WithPolicy(policy),
		texload.WithBackend(f.backend),
		texload.WithAllocator(f.alloc),
		texload.WithLogger(log.New(f.logs, "", 0)),
	}
	f.loader = texload.New(append(base, opts...)...)
	return f
}

func basisBlob() []byte {
	return basisutest.BasisFile(basisutest.BasisOptions{
		TexFormat: basisu.TexFormatUASTC4x4,
		Levels:    basisutest.MipChain(8, 8, 2),
	})
}

func ktx2Blob() []byte {
	return basisutest.KTX2File(basisutest.KTX2Options{
		Payload: basisu.PayloadUASTC,
		Width:   8,
		Height:  8,
		Levels:  2,
	})
}

func TestLoadImageFromMemory_EmptyInput(t *testing.T) {
	f := newFixture()

	for _, c := range []struct {
		tag  string
		data []byte
	}{
		{"", basisBlob()},
		{"basis", nil},
		{"basis", []byte{}},
	} {
		img := f.loader.LoadImageFromMemory(c.tag, c.data)
		assert.False(t, img.Valid(), "tag=%q len=%d", c.tag, len(c.data))
	}
	assert.Zero(t, f.backend.Inits(), "empty input must not initialize the backend")
	assert.Empty(t, f.logs.String())

	_, err := f.loader.Decode(context.Background(), "", nil)
	assert.Equal(t, basisu.ErrEmptyInput, basisu.ErrorCodeOf(err))
}

func TestLoadImageFromMemory_UnknownType(t *testing.T) {
	f := newFixture()

	img := f.loader.LoadImageFromMemory("png", basisBlob())
	assert.False(t, img.Valid())
	assert.Zero(t, f.backend.Opens())
	assert.Empty(t, f.backend.Calls())
	assert.Zero(t, f.alloc.Reallocs())
	assert.Empty(t, f.logs.String(), "unsupported types are not logged")

	_, err := f.loader.Decode(context.Background(), ".dds", basisBlob())
	assert.Equal(t, basisu.ErrUnsupportedType, basisu.ErrorCodeOf(err))
}

func TestLoadImageFromMemory_DispatchIgnoresCaseAndDot(t *testing.T) {
	f := newFixture()

	for _, tag := range []string{"basis", ".basis", "BASIS", ".Basis"} {
		img := f.loader.LoadImageFromMemory(tag, basisBlob())
		require.True(t, img.Valid(), "tag %q", tag)
		assert.Equal(t, basisu.PixelFormatCompressedDXT1RGB, img.Format)
		assert.Len(t, img.Data, (4+1)*8)
		img.Release()
	}
	if basisu.KTX2Supported {
		for _, tag := range []string{"ktx2", ".KTX2"} {
			img := f.loader.LoadImageFromMemory(tag, ktx2Blob())
			require.True(t, img.Valid(), "tag %q", tag)
			assert.Equal(t, 2, img.Mipmaps)
			img.Release()
		}
	}
	assert.Zero(t, f.alloc.Live())
	assert.Equal(t, f.backend.Opens(), f.backend.Closes())
}

func TestLoadImageFromMemory_WrongDecoderForBlob(t *testing.T) {
	f := newFixture()
	img := f.loader.LoadImageFromMemory("ktx2", basisBlob())
	assert.False(t, img.Valid())
	assert.Zero(t, f.alloc.Live())
}

func TestLoadImageFromMemory_CorruptBlobsLeakNothing(t *testing.T) {
	f := newFixture()

	img := f.loader.LoadImageFromMemory("basis", basisutest.Corrupt(basisBlob(), 30))
	assert.False(t, img.Valid())
	img = f.loader.LoadImageFromMemory("basis", basisBlob()[:100])
	assert.False(t, img.Valid())
	if basisu.KTX2Supported {
		img = f.loader.LoadImageFromMemory("ktx2", basisutest.Corrupt(ktx2Blob(), 2))
		assert.False(t, img.Valid())
		blob := ktx2Blob()
		img = f.loader.LoadImageFromMemory("ktx2", blob[:len(blob)-10])
		assert.False(t, img.Valid())
	}

	assert.Zero(t, f.alloc.Live())
	assert.Zero(t, f.alloc.Reallocs())
	assert.Contains(t, f.logs.String(), "texload: decode failed type=basis")
}

func TestLoader_InitRunsOnce(t *testing.T) {
	f := newFixture()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			img := f.loader.LoadImageFromMemory("basis", basisBlob())
			img.Release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.backend.Inits())
	assert.Equal(t, 16, f.backend.Opens())
	assert.Zero(t, f.alloc.Live())
}

func TestLoader_BackendInitFailure(t *testing.T) {
	backend := basisutest.NewFakeBackend()
	backend.FailInit = true
	var logs bytes.Buffer
	policy := basisu.NewFormatPolicy()
	policy.ConfigureRGBA(basisu.PixelFormatUncompressedR8G8B8A8)
	l := texload.New(
		texload.WithBackend(backend),
		texload.WithPolicy(policy),
		texload.WithLogger(log.New(&logs, "", 0)),
	)

	_, err := l.Decode(context.Background(), "basis", basisBlob())
	assert.Equal(t, basisu.ErrNoBackend, basisu.ErrorCodeOf(err))
	assert.Contains(t, logs.String(), "backend init failed")
	assert.Zero(t, backend.Opens())

	if basisu.KTX2Supported {
		raw := basisutest.KTX2File(basisutest.KTX2Options{Payload: basisu.PayloadRGBA8, HasAlpha: true, Width: 2, Height: 2})
		img, err := l.Decode(context.Background(), "ktx2", raw)
		require.NoError(t, err)
		assert.Len(t, img.Data, 2*2*4)
		img.Release()
	}
	assert.Equal(t, 1, backend.Inits())
}

func TestLoadImage_UsesExtension(t *testing.T) {
	files := map[string][]byte{
		"/tex/wall.basis": basisBlob(),
		"/tex/wall.png":   basisBlob(),
	}
	readFile := func(path string) ([]byte, error) {
		data, ok := files[path]
		if !ok {
			return nil, os.ErrNotExist
		}
		return data, nil
	}
	f := newFixture(texload.WithReadFile(readFile))

	img := f.loader.LoadImage("/tex/wall.basis")
	require.True(t, img.Valid())
	assert.Equal(t, 8, img.Width)
	img.Release()

	png := f.loader.LoadImage("/tex/wall.png")
	assert.False(t, png.Valid())
	missing := f.loader.LoadImage("/tex/missing.basis")
	assert.False(t, missing.Valid())

	_, err := f.loader.DecodeFile(context.Background(), "/tex/missing.basis")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadTexture(t *testing.T) {
	files := map[string][]byte{"a.basis": basisBlob(), "bad.basis": []byte("junk")}
	readFile := func(path string) ([]byte, error) { return files[path], nil }

	var uploaded []int
	uploader := texload.UploaderFunc(func(img *basisu.Image) (texload.Texture, error) {
		uploaded = append(uploaded, len(img.Data))
		return texload.Texture{ID: 7, Width: img.Width, Height: img.Height, Mipmaps: img.Mipmaps, Format: img.Format}, nil
	})
	f := newFixture(texload.WithReadFile(readFile), texload.WithUploader(uploader))

	tex := f.loader.LoadTexture("a.basis")
	require.True(t, tex.Valid())
	assert.Equal(t, texload.Texture{ID: 7, Width: 8, Height: 8, Mipmaps: 2, Format: basisu.PixelFormatCompressedDXT1RGB}, tex)
	assert.Equal(t, []int{40}, uploaded)
	assert.Zero(t, f.alloc.Live(), "intermediate image must be released")

	assert.False(t, f.loader.LoadTexture("bad.basis").Valid())
	assert.Len(t, uploaded, 1, "failed decodes are not uploaded")
}

func TestLoadTexture_UploadFailure(t *testing.T) {
	readFile := func(string) ([]byte, error) { return basisBlob(), nil }
	uploader := texload.UploaderFunc(func(*basisu.Image) (texload.Texture, error) {
		return texload.Texture{}, basisutest.ErrInjected
	})
	f := newFixture(texload.WithReadFile(readFile), texload.WithUploader(uploader))

	assert.False(t, f.loader.LoadTexture("a.basis").Valid())
	assert.Zero(t, f.alloc.Live())
	assert.Contains(t, f.logs.String(), "upload failed")
}

func TestLoadTexture_NoUploader(t *testing.T) {
	f := newFixture(texload.WithReadFile(func(string) ([]byte, error) { return basisBlob(), nil }))
	assert.False(t, f.loader.LoadTexture("a.basis").Valid())
	assert.Zero(t, f.alloc.Reallocs())
}

func TestLoader_SetUploaderConcurrent(t *testing.T) {
	readFile := func(string) ([]byte, error) { return basisBlob(), nil }
	f := newFixture(texload.WithReadFile(readFile))

	upload := func(id uint32) texload.Uploader {
		return texload.UploaderFunc(func(img *basisu.Image) (texload.Texture, error) {
			return texload.Texture{ID: id, Width: img.Width, Height: img.Height, Mipmaps: img.Mipmaps, Format: img.Format}, nil
		})
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(id uint32) {
			defer wg.Done()
			f.loader.SetUploader(upload(id))
		}(uint32(i + 1))
		go func() {
			defer wg.Done()
			f.loader.LoadTexture("a.basis")
		}()
	}
	wg.Wait()

	f.loader.SetUploader(upload(42))
	assert.Equal(t, uint32(42), f.loader.LoadTexture("a.basis").ID)
	assert.Zero(t, f.alloc.Live())
}

func TestLoader_ConfigureFormats(t *testing.T) {
	f := newFixture()
	f.loader.ConfigureRGBFormat(basisu.PixelFormatUncompressedR5G6B5)
	assert.Equal(t, basisu.FormatRGB565, f.loader.Policy().RGB())
	assert.Equal(t, basisu.FormatBC3RGBA, f.loader.Policy().RGBA())

	img := f.loader.LoadImageFromMemory("basis", basisBlob())
	require.True(t, img.Valid())
	assert.Equal(t, basisu.PixelFormatUncompressedR5G6B5, img.Format)
	assert.Len(t, img.Data, (64+16)*2)
	img.Release()

	f.loader.ConfigureRGBAFormat(basisu.PixelFormatCompressedASTC8x8RGBA)
	assert.Equal(t, basisu.FormatRGBA32, f.loader.Policy().RGBA())
}

func TestLoader_Tracing(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	f := newFixture(texload.WithTracer(tp.Tracer("test")))
	img, err := f.loader.Decode(context.Background(), "basis", basisBlob())
	require.NoError(t, err)
	img.Release()
	_, err = f.loader.Decode(context.Background(), "basis", []byte("junk"))
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "texload.Decode", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "ERR_BAD_CONTAINER", spans[1].Status().Description)
}

func TestParseContainer(t *testing.T) {
	c, ok := texload.ParseContainer(" .BaSiS ")
	assert.True(t, ok)
	assert.Equal(t, texload.ContainerBasis, c)

	c, ok = texload.ParseContainer("KTX2")
	assert.Equal(t, basisu.KTX2Supported, ok)
	if ok {
		assert.Equal(t, texload.ContainerKTX2, c)
	}

	_, ok = texload.ParseContainer("ktx")
	assert.False(t, ok)
}
