package telemetry

import (
	"context"
	"fmt"
	"io"
	"log"
	"runtime/debug"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"

	"github.com/am-sokolov/go-basisu/basisu"
)

// Exporter names where decode spans are sent.
type Exporter string

const (
	ExporterNone   Exporter = "none"
	ExporterStdout Exporter = "stdout"
	ExporterOTLP   Exporter = "otlp"
)

// ParseExporter accepts an exporter name in any case; "" means none.
func ParseExporter(name string) (Exporter, error) {
	switch e := Exporter(strings.ToLower(strings.TrimSpace(name))); e {
	case "", ExporterNone:
		return ExporterNone, nil
	case ExporterStdout, ExporterOTLP:
		return e, nil
	default:
		return "", fmt.Errorf("telemetry: unknown trace exporter %q (want none|stdout|otlp)", name)
	}
}

// TraceConfig describes the tracer provider of one tool run.
type TraceConfig struct {
	ServiceName string
	// Version defaults to the main module version from the build info.
	Version  string
	Exporter string
	// Backend is recorded on the resource as basisu.backend.
	Backend      string
	OTLPEndpoint string
	OTLPInsecure bool
	// Writer receives stdout exporter output; nil means os.Stdout.
	Writer io.Writer
}

// Shutdown flushes and stops a tracer provider.
type Shutdown func(context.Context) error

// SetupTracing installs the global tracer provider selected by cfg.Exporter. With the
// none exporter the global provider is left untouched and Shutdown is a no-op.
func SetupTracing(ctx context.Context, cfg TraceConfig, logger *log.Logger) (Shutdown, error) {
	kind, err := ParseExporter(cfg.Exporter)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if kind == ExporterNone {
		logger.Printf("tracing exporter disabled")
		return func(context.Context) error { return nil }, nil
	}

	exp, err := newSpanExporter(ctx, kind, cfg)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %s exporter: %w", kind, err)
	}
	res, err := decodeResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource: %w", err)
	}

	// The tools exit right after their last decode, so spans are exported inline.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	logger.Printf("tracing exporter enabled type=%s backend=%s", kind, cfg.Backend)
	return tp.Shutdown, nil
}

func newSpanExporter(ctx context.Context, kind Exporter, cfg TraceConfig) (sdktrace.SpanExporter, error) {
	if kind == ExporterStdout {
		opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
		if cfg.Writer != nil {
			opts = append(opts, stdouttrace.WithWriter(cfg.Writer))
		}
		return stdouttrace.New(opts...)
	}

	endpoint := strings.TrimSpace(cfg.OTLPEndpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if cfg.OTLPInsecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

func decodeResource(cfg TraceConfig) (*resource.Resource, error) {
	version := cfg.Version
	if version == "" {
		version = "(devel)"
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
			version = bi.Main.Version
		}
	}
	return resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(version),
		attribute.String("basisu.backend", cfg.Backend),
		attribute.Bool("basisu.ktx2", basisu.KTX2Supported),
	))
}
