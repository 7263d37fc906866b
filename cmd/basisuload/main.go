package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/am-sokolov/go-basisu/basisu"
	"github.com/am-sokolov/go-basisu/basisu/native"
	"github.com/am-sokolov/go-basisu/internal/config"
	"github.com/am-sokolov/go-basisu/internal/telemetry"
	"github.com/am-sokolov/go-basisu/texload"
)

func main() {
	cfg := config.Load()

	var (
		inPath      string
		typeTag     string
		impl        string
		rgb         string
		rgba        string
		iters       int
		maxBytes    int
		checksumOpt string
		outPath     string
		previewPath string
		traceOpt    string
		metrics     bool
		cpuprofile  string
	)
	flag.StringVar(&inPath, "in", "", "input .basis or .ktx2 file")
	flag.StringVar(&typeTag, "type", "", "container type (default: from the file extension)")
	flag.StringVar(&impl, "impl", cfg.Decode.Impl, "implementation: go|native (native requires -tags basisu_native)")
	flag.StringVar(&rgb, "rgb", cfg.Formats.RGB, "target for content without alpha (e.g. COMPRESSED_DXT1_RGB, rgb565)")
	flag.StringVar(&rgba, "rgba", cfg.Formats.RGBA, "target for content with alpha (e.g. COMPRESSED_DXT5_RGBA, rgba32)")
	flag.IntVar(&iters, "iters", 1, "iterations")
	flag.IntVar(&maxBytes, "max-bytes", cfg.Decode.MaxBytes, "largest decoded buffer to allow (0 = unlimited)")
	flag.StringVar(&checksumOpt, "checksum", "fnv", "checksum: fnv|none (for benchmarking)")
	flag.StringVar(&outPath, "out", "", "optional raw output path for the assembled buffer")
	flag.StringVar(&previewPath, "preview", "", "optional level 0 preview (.png, .bmp or .webp; needs RGBA32 output)")
	flag.StringVar(&traceOpt, "trace", cfg.Telemetry.TraceExporter, "trace exporter: none|stdout|otlp")
	flag.BoolVar(&metrics, "metrics", false, "print decode metrics on exit")
	flag.StringVar(&cpuprofile, "cpuprofile", "", "optional CPU profile output path")
	flag.Parse()

	if inPath == "" {
		fmt.Fprintln(os.Stderr, "usage: basisuload -in <file.basis|file.ktx2> [-impl go|native] [-rgb F] [-rgba F] [-iters N] [-out file] [-preview file.png]")
		os.Exit(2)
	}
	if iters <= 0 {
		fmt.Fprintln(os.Stderr, "iters must be > 0")
		os.Exit(2)
	}
	if typeTag == "" {
		typeTag = filepath.Ext(inPath)
	}

	logger := log.New(os.Stderr, "[basisuload] ", log.LstdFlags)
	ctx := context.Background()

	shutdown, err := telemetry.SetupTracing(ctx, telemetry.TraceConfig{
		ServiceName:  "basisuload",
		Exporter:     traceOpt,
		Backend:      strings.ToLower(strings.TrimSpace(impl)),
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	}, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			logger.Printf("trace shutdown failed err=%v", err)
		}
	}()

	policy := basisu.NewFormatPolicy()
	if err := (config.FormatConfig{RGB: rgb, RGBA: rgba}).Apply(policy); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	opts := []texload.Option{
		texload.WithPolicy(policy),
		texload.WithLogger(logger),
		texload.WithAllocator(basisu.NewHeapAllocator(maxBytes)),
	}
	switch strings.ToLower(strings.TrimSpace(impl)) {
	case "go":
	case "native", "cgo":
		if !native.Enabled() {
			fmt.Fprintln(os.Stderr, "native impl requested but not enabled (build with -tags basisu_native and CGO_ENABLED=1)")
			os.Exit(2)
		}
		b, err := native.NewBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		opts = append(opts, texload.WithBackend(b))
	default:
		fmt.Fprintln(os.Stderr, "invalid -impl (want go|native)")
		os.Exit(2)
	}

	var reg *prometheus.Registry
	if metrics {
		reg = prometheus.NewRegistry()
		opts = append(opts, texload.WithMetrics(texload.NewMetrics(reg)))
	}
	loader := texload.New(opts...)

	data, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	doChecksum := strings.ToLower(strings.TrimSpace(checksumOpt)) != "none"
	var (
		checksum uint64
		img      *basisu.Image
	)
	start := time.Now()
	for i := 0; i < iters; i++ {
		if img != nil {
			img.Release()
		}
		img, err = loader.Decode(ctx, typeTag, data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "decode failed (%s): %v\n", basisu.ErrorString(basisu.ErrorCodeOf(err)), err)
			os.Exit(1)
		}
		if doChecksum {
			checksum = fnv1a64(checksum, img.Data)
		}
	}
	elapsed := time.Since(start)
	defer img.Release()

	perIter := elapsed / time.Duration(iters)
	fmt.Printf("%dx%d %s mipmaps=%d bytes=%d\n", img.Width, img.Height, img.Format, img.Mipmaps, len(img.Data))
	fmt.Printf("iters=%d total=%s per_iter=%s\n", iters, elapsed, perIter)
	if doChecksum {
		fmt.Printf("checksum=%s\n", fmtChecksum(checksum))
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, img.Data, 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if previewPath != "" {
		if err := writePreview(previewPath, img); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if reg != nil {
		if err := printMetrics(reg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func printMetrics(reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
			return err
		}
	}
	return nil
}

func fnv1a64(seed uint64, data []byte) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := seed
	if h == 0 {
		h = offset64
	}
	for _, b := range data {
		h ^= uint64(b)
		h *= prime64
	}
	return h
}

func fmtChecksum(v uint64) string {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[7-i] = byte(v >> uint(i*8))
	}
	return hex.EncodeToString(b[:])
}
