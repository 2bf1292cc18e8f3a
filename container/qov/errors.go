/*
NAME
  errors.go

DESCRIPTION
  Error taxonomy for the qov container and its encoder/decoder
  orchestrators, per spec §7.

LICENSE
  See LICENSE file included with this package.
*/

package qov

import "github.com/pkg/errors"

var (
	// ErrInvalidArgument indicates an illegal width/height, fps_den of
	// zero, an out-of-range frame index, or a call made after Finish.
	ErrInvalidArgument = errors.New("qov: invalid argument")

	// ErrInvalidHeader indicates a magic mismatch or unknown version.
	ErrInvalidHeader = errors.New("qov: invalid header")

	// ErrTruncatedInput indicates a chunk header or payload extends past
	// the data currently available, or the file ends without an END
	// chunk.
	ErrTruncatedInput = errors.New("qov: truncated input")

	// ErrCorruptedStream indicates a SYNC chunk whose body is malformed
	// or announces an unexpected frame number, a compressed frame chunk
	// too short to hold its size prefix, or a P-frame with no preceding
	// keyframe. LZ4 and opcode-level corruption is reported with the
	// ErrCorruptedStream sentinels of codec/lz4 and codec/qov.
	ErrCorruptedStream = errors.New("qov: corrupted stream")

	// ErrWriterExhausted indicates the output buffer could not be
	// grown to hold a write.
	ErrWriterExhausted = errors.New("qov: writer exhausted")

	// ErrNotYetAvailable indicates a DataSource has not yet delivered
	// enough bytes to satisfy a read; it is transient and the caller
	// should retry.
	ErrNotYetAvailable = errors.New("qov: data not yet available")
)
