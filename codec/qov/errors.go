/*
NAME
  errors.go

DESCRIPTION
  Error taxonomy for the qov opcode codec.

LICENSE
  See LICENSE file included with this package.
*/

// Package qov implements the QOV opcode-stream codec: RGBA<->YUV color
// conversion, the 64-entry predicted-color cache, and the RGB and
// per-plane YUV opcode encoders/decoders that sit underneath the qov
// container format.
package qov

import "github.com/pkg/errors"

// Sentinel errors forming the codec's error taxonomy. Callers should use
// errors.Is to test for these, since call sites wrap them with context
// via github.com/pkg/errors.
var (
	// ErrInvalidArgument indicates an illegal width/height, an
	// out-of-range frame index, or some other caller-supplied value
	// that violates a precondition.
	ErrInvalidArgument = errors.New("qov: invalid argument")

	// ErrCorruptedStream indicates an unknown opcode, an INDEX opcode
	// naming a value-cache slot that was never written, a SKIP run that
	// overruns the frame or plane, a zero SKIP_LONG count, or some other
	// violation of the opcode stream's internal structure.
	ErrCorruptedStream = errors.New("qov: corrupted opcode stream")

	// ErrTruncatedInput indicates the opcode stream ended before the
	// frame or plane it was decoding was complete.
	ErrTruncatedInput = errors.New("qov: truncated input")
)
