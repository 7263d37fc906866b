package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/am-sokolov/go-basisu/basisu"
	"github.com/am-sokolov/go-basisu/basisu/native"
)

// Config is the environment-derived configuration of the command line tools.
type Config struct {
	Formats   FormatConfig
	Decode    DecodeConfig
	Telemetry TelemetryConfig
}

type FormatConfig struct {
	RGB  string
	RGBA string
}

type DecodeConfig struct {
	// Impl selects the backend: "go" (raw KTX2 payloads only) or "native".
	// It defaults to "native" only in builds where the native backend is enabled.
	Impl string
	// MaxBytes caps the decoded buffer size. Zero means no limit.
	MaxBytes int
}

type TelemetryConfig struct {
	TraceExporter string
	OTLPEndpoint  string
	OTLPInsecure  bool
}

func Load() Config {
	return Config{
		Formats: FormatConfig{
			RGB:  env("BASISU_RGB_FORMAT", ""),
			RGBA: env("BASISU_RGBA_FORMAT", ""),
		},
		Decode: DecodeConfig{
			Impl:     strings.ToLower(env("BASISU_IMPL", DefaultImpl())),
			MaxBytes: envInt("BASISU_MAX_BYTES", 0),
		},
		Telemetry: TelemetryConfig{
			TraceExporter: env("BASISU_TRACE_EXPORTER", "none"),
			OTLPEndpoint:  env("BASISU_OTLP_ENDPOINT", "localhost:4318"),
			OTLPInsecure:  envBool("BASISU_OTLP_INSECURE", true),
		},
	}
}

// DefaultImpl returns "native" when the cgo backend is compiled in and "go" otherwise.
func DefaultImpl() string {
	if native.Enabled() {
		return "native"
	}
	return "go"
}

// Apply configures p from the format names in c. Empty names leave a slot unchanged.
func (c FormatConfig) Apply(p *basisu.FormatPolicy) error {
	if c.RGB != "" {
		pf, err := basisu.ParsePixelFormat(c.RGB)
		if err != nil {
			return err
		}
		p.ConfigureRGB(pf)
	}
	if c.RGBA != "" {
		pf, err := basisu.ParsePixelFormat(c.RGBA)
		if err != nil {
			return err
		}
		p.ConfigureRGBA(pf)
	}
	return nil
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
