package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/am-sokolov/go-basisu/basisu"
	"github.com/am-sokolov/go-basisu/texload"
)

func main() {
	var (
		inPath    string
		typeTag   string
		dumpFirst bool
	)
	flag.StringVar(&inPath, "in", "", "input .basis or .ktx2 file")
	flag.StringVar(&typeTag, "type", "", "container type (default: from the file extension)")
	flag.BoolVar(&dumpFirst, "dump-first-level", false, "dump the first 16 bytes of level 0 as hex")
	flag.Parse()

	if inPath == "" {
		fmt.Fprintln(os.Stderr, "usage: basisuinfo -in <file.basis|file.ktx2> [-type basis|ktx2] [-dump-first-level]")
		os.Exit(2)
	}
	if typeTag == "" {
		typeTag = filepath.Ext(inPath)
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := describe(os.Stdout, typeTag, data, dumpFirst); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func describe(w io.Writer, typeTag string, data []byte, dumpFirst bool) error {
	container, ok := texload.ParseContainer(typeTag)
	if !ok {
		return fmt.Errorf("unsupported container type %q", typeTag)
	}

	var (
		info  basisu.ImageInfo
		first []byte
	)
	switch container {
	case texload.ContainerBasis:
		f, err := basisu.ParseBasisFile(data)
		if err != nil {
			return err
		}
		if info, err = f.ImageInfo(0); err != nil {
			return err
		}
		fmt.Fprintln(w, f.Header.String())
		first = f.SliceData(0)
	case texload.ContainerKTX2:
		f, err := basisu.ParseKTX2File(data)
		if err != nil {
			return err
		}
		info = f.ImageInfo()
		fmt.Fprintln(w, f.Header.String())
		fmt.Fprintf(w, "payload %s\n", f.Payload)
		if first, err = f.LevelData(0); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "%dx%d alpha=%v levels=%d\n", info.Width, info.Height, info.HasAlpha, len(info.Levels))
	fmt.Fprintln(w, "level  width  height  blocks")
	for _, l := range info.Levels {
		fmt.Fprintf(w, "%5d  %5d  %6d  %dx%d\n", l.Index, l.Width, l.Height, l.BlocksX, l.BlocksY)
	}
	if dumpFirst {
		n := min(len(first), 16)
		fmt.Fprintln(w, hex.EncodeToString(first[:n]))
	}
	return nil
}
