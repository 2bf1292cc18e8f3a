/*
NAME
  qovinfo

DESCRIPTION
  qovinfo opens a qov file, builds its chunk index, and prints the file
  header, keyframe index, and chunk statistics. It is a header/index
  inspector, not a player.

LICENSE
  See LICENSE file included with this package.
*/

// Package main implements qovinfo, a diagnostic CLI for qov files.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	containerqov "github.com/rebizu/qov-sp/container/qov"
	"github.com/ausocean/utils/logging"
)

// Logging configuration, mirroring the conventions of other cmd/ tools
// in this module's ancestor.
const (
	logMaxSize   = 10 // MB
	logMaxBackup = 3
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = true
)

const pkg = "qovinfo: "

func main() {
	logPath := flag.String("logpath", "", "path to write rotated logs to; stderr if empty")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: qovinfo [-logpath path] <file.qov>")
		os.Exit(2)
	}

	var logDst io.Writer = os.Stderr
	if *logPath != "" {
		logDst = &lumberjack.Logger{
			Filename:   *logPath,
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackup,
			MaxAge:     logMaxAge,
		}
	}
	log := logging.New(logVerbosity, logDst, logSuppress)

	if err := run(flag.Arg(0), log); err != nil {
		log.Fatal(pkg+"failed", "error", err.Error())
	}
}

func run(path string, log logging.Logger) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	src := containerqov.NewMemorySource(buf)
	dec, err := containerqov.NewDecoder(src, log)
	if err != nil {
		return err
	}

	h, err := dec.ParseHeader()
	if err != nil {
		return err
	}
	if err := dec.BuildIndex(); err != nil {
		return err
	}
	stats, err := dec.FileStats()
	if err != nil {
		return err
	}

	fmt.Printf("version:      0x%02x\n", h.Version)
	fmt.Printf("dimensions:   %dx%d\n", h.Width, h.Height)
	fmt.Printf("fps:          %d/%d\n", h.FPSNum, h.FPSDen)
	fmt.Printf("colorspace:   0x%02x (yuv=%v alpha=%v)\n", h.Colorspace, h.IsYUV(), h.HasAlpha())
	fmt.Printf("total_frames: %d\n", dec.FrameCount())
	fmt.Printf("duration:     %d\n", stats.TotalDuration)
	fmt.Printf("keyframes:    %v\n", stats.KeyframeIndices)
	fmt.Printf("chunks:       %d total, %d frame chunks, %d compressed\n",
		len(stats.Descriptors), stats.Chunks.FrameChunkCount, stats.Chunks.CompressedCount)
	fmt.Printf("payload size: mean %.1f B, stddev %.1f B\n", stats.Chunks.MeanPayloadBytes, stats.Chunks.StdDevBytes)
	fmt.Printf("compression:  %.3f\n", stats.Chunks.CompressionRatio)
	return nil
}
