/*
NAME
  header.go

DESCRIPTION
  The 24-byte qov file header: magic, version, flags, geometry, frame
  rate, audio parameters, and colorspace, per spec §4.6.

LICENSE
  See LICENSE file included with this package.
*/

// Package qov implements the qov chunked container: file header, chunk
// framing, the sync/index/end chunk types, and the encoder and streaming
// decoder orchestrators built on top of codec/qov's opcode codecs and
// codec/lz4's block compressor.
package qov

import (
	"github.com/pkg/errors"

	qcodec "github.com/rebizu/qov-sp/codec/qov"
)

// HeaderSize is the fixed size, in bytes, of the file header.
const HeaderSize = 24

// magic is the 4-byte ASCII signature every qov file begins with.
var magic = [4]byte{'q', 'o', 'v', 'f'}

// Container version numbers, selecting 16- or 32-bit chunk size fields.
const (
	Version1 uint8 = 0x01 // 8-byte chunk header, 16-bit size
	Version2 uint8 = 0x02 // 10-byte chunk header, 32-bit size
)

// Header flag bits.
const (
	FlagHasAlpha     uint8 = 1 << 0
	FlagHasMotion    uint8 = 1 << 1
	FlagHasIndex     uint8 = 1 << 2
	FlagHasBFrames   uint8 = 1 << 3
	FlagEnhancedComp uint8 = 1 << 4
)

// Colorspace codes.
const (
	ColorSRGB       uint8 = 0x00
	ColorSRGBA      uint8 = 0x01
	ColorLinear     uint8 = 0x02
	ColorLinearA    uint8 = 0x03
	ColorYUV420     uint8 = 0x10
	ColorYUV422     uint8 = 0x11
	ColorYUV444     uint8 = 0x12
	ColorYUV420A    uint8 = 0x13
	colorYUVMin           = ColorYUV420
	colorYUVMax           = ColorYUV420A
)

// Header is the 24-byte qov file header.
type Header struct {
	Version       uint8
	Flags         uint8
	Width         uint16
	Height        uint16
	FPSNum        uint16
	FPSDen        uint16
	TotalFrames   uint32
	AudioChannels uint8
	AudioRateHz   uint32 // 24-bit field; values above 0xFFFFFF are invalid
	Colorspace    uint8
}

// IsYUV reports whether h's colorspace selects a YUV mode (spec §4.7:
// yuv_mode = colorspace in [0x10, 0x13]).
func (h Header) IsYUV() bool {
	return h.Colorspace >= colorYUVMin && h.Colorspace <= colorYUVMax
}

// HasAlpha reports whether frames carry an alpha channel/plane (spec
// §4.7: has_alpha = bit 0 of flags or colorspace == 0x13).
func (h Header) HasAlpha() bool {
	return h.Flags&FlagHasAlpha != 0 || h.Colorspace == ColorYUV420A
}

// Subsampling returns the chroma subsampling scheme implied by h's
// colorspace. It is only meaningful when IsYUV is true.
//
// The spec documents subsampling for 0x10 (4:2:0) and leaves 0x11/0x12
// to the "YUV variants" description and 0x13 underspecified beyond
// "a fourth A plane... precedes the end marker" in scenario S6. This
// implementation resolves the mapping as: 0x10 = 4:2:0, 0x11 = 4:2:2,
// 0x12 = 4:4:4, and 0x13 = 4:2:0 with an added alpha plane (mirroring
// scenario S6, which adds an alpha plane to the same 4x4 example used
// for 0x10 without changing the U/V plane sizes). See DESIGN.md.
func (h Header) Subsampling() qcodec.Subsampling {
	switch h.Colorspace {
	case ColorYUV422:
		return qcodec.Subsample422
	case ColorYUV444:
		return qcodec.Subsample444
	default: // ColorYUV420, ColorYUV420A
		return qcodec.Subsample420
	}
}

// Validate checks the invariants new encoders/decoders must enforce
// before using a Header: width/height in [1,65535], fps_den != 0, and a
// known colorspace.
func (h Header) Validate() error {
	if h.Version != Version1 && h.Version != Version2 {
		return errors.Wrapf(ErrInvalidHeader, "unknown version %d", h.Version)
	}
	if h.Width == 0 || h.Height == 0 {
		return errors.Wrap(ErrInvalidArgument, "width and height must be in [1,65535]")
	}
	if h.FPSDen == 0 {
		return errors.Wrap(ErrInvalidArgument, "fps_den must be non-zero")
	}
	switch h.Colorspace {
	case ColorSRGB, ColorSRGBA, ColorLinear, ColorLinearA,
		ColorYUV420, ColorYUV422, ColorYUV444, ColorYUV420A:
	default:
		return errors.Wrapf(ErrInvalidArgument, "unknown colorspace 0x%02x", h.Colorspace)
	}
	return nil
}

// Encode writes h's 24-byte on-wire representation.
func (h Header) Encode() []byte {
	w := qcodec.NewByteWriter(HeaderSize)
	w.WriteBytes(magic[:])
	w.WriteU8(h.Version)
	w.WriteU8(h.Flags)
	w.WriteU16(h.Width)
	w.WriteU16(h.Height)
	w.WriteU16(h.FPSNum)
	w.WriteU16(h.FPSDen)
	w.WriteU32(h.TotalFrames)
	w.WriteU8(h.AudioChannels)
	w.WriteU8(byte(h.AudioRateHz >> 16))
	w.WriteU8(byte(h.AudioRateHz >> 8))
	w.WriteU8(byte(h.AudioRateHz))
	w.WriteU8(h.Colorspace)
	w.WriteU8(0) // reserved
	return w.Bytes()
}

// DecodeHeader parses a 24-byte header. It returns ErrInvalidHeader for a
// magic mismatch or unknown version, and ErrInvalidArgument for an
// invalid fps_den, width, height, or colorspace.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, errors.Wrap(ErrTruncatedInput, "short header")
	}
	if b[0] != magic[0] || b[1] != magic[1] || b[2] != magic[2] || b[3] != magic[3] {
		return Header{}, errors.Wrap(ErrInvalidHeader, "bad magic")
	}
	h := Header{
		Version:       b[4],
		Flags:         b[5],
		Width:         be16(b[6:8]),
		Height:        be16(b[8:10]),
		FPSNum:        be16(b[10:12]),
		FPSDen:        be16(b[12:14]),
		TotalFrames:   be32(b[14:18]),
		AudioChannels: b[18],
		AudioRateHz:   uint32(b[19])<<16 | uint32(b[20])<<8 | uint32(b[21]),
		Colorspace:    b[22],
	}
	if err := h.Validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}

func be16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }
func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
func be64(b []byte) uint64 {
	var v uint64
	for _, c := range b[:8] {
		v = v<<8 | uint64(c)
	}
	return v
}
