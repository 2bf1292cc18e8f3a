/*
NAME
  stats.go

DESCRIPTION
  Aggregate chunk-size and compression-ratio statistics surfaced by
  Decoder.FileStats, purely informational and never consulted by decode
  itself.

LICENSE
  See LICENSE file included with this package.
*/

package qov

import (
	"gonum.org/v1/gonum/stat"
)

// ChunkStats summarizes the frame-chunk payloads discovered by
// Decoder.BuildIndex.
type ChunkStats struct {
	FrameChunkCount  int
	MeanPayloadBytes float64
	StdDevBytes      float64
	CompressedCount  int
	CompressionRatio float64 // sum(on-disk bytes) / sum(uncompressed bytes); 1 when nothing was compressed
}

// computeChunkStats derives a ChunkStats from the on-disk size of every
// frame chunk (sizes), the number of those chunks that were LZ4-wrapped,
// and the total on-disk vs. original uncompressed byte counts.
func computeChunkStats(sizes []float64, compressedCount int, onDiskBytes, uncompressedBytes float64) ChunkStats {
	cs := ChunkStats{
		FrameChunkCount:  len(sizes),
		CompressedCount:  compressedCount,
		CompressionRatio: 1,
	}
	if len(sizes) > 0 {
		cs.MeanPayloadBytes = stat.Mean(sizes, nil)
		cs.StdDevBytes = stat.StdDev(sizes, nil)
	}
	if uncompressedBytes > 0 {
		cs.CompressionRatio = onDiskBytes / uncompressedBytes
	}
	return cs
}
