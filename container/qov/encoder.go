/*
NAME
  encoder.go

DESCRIPTION
  The qov encoder orchestrator (spec §4.7): mode selection, previous-
  frame/plane retention, compression gating, and keyframe indexing on
  top of codec/qov's opcode codecs and codec/lz4's block compressor.

LICENSE
  See LICENSE file included with this package.
*/

package qov

import (
	"github.com/pkg/errors"

	"github.com/rebizu/qov-sp/codec/lz4"
	qcodec "github.com/rebizu/qov-sp/codec/qov"
	"github.com/ausocean/utils/logging"
)

// compressionThresholdPct is the spec §4.7 compression gating ratio: a
// compressed payload is only kept when it is strictly smaller than this
// percentage of the uncompressed payload.
const compressionThresholdPct = 95

// Encoder writes a qov bitstream incrementally: write_header, then any
// number of encode_keyframe/encode_pframe calls, then finish. It is not
// safe for concurrent use.
type Encoder struct {
	log    logging.Logger
	header Header

	yuvMode  bool
	hasAlpha bool
	sub      qcodec.Subsampling

	out *qcodec.ByteWriter

	cache      *qcodec.ColorCache
	prevFrame  *qcodec.Frame
	prevPlanes *qcodec.Planes

	frameNumber     uint32
	totalFramesPos  int
	keyframeIndex   []KeyframeIndexEntry
	hasIndex        bool
	compressEnabled bool
	scratch         *qcodec.ByteWriter // reused across frames; see DESIGN.md
	finished        bool
}

// NewEncoder validates its arguments (spec §4.7 `new`) and returns an
// Encoder ready for WriteHeader. log must not be nil; callers that don't
// care about log output should pass logging.New(logging.Error, io.Discard, false).
func NewEncoder(width, height int, fpsNum, fpsDen uint16, flags, colorspace uint8, compressionEnabled bool, log logging.Logger) (*Encoder, error) {
	if log == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "log must not be nil")
	}
	if width < 1 || width > 65535 || height < 1 || height > 65535 {
		return nil, errors.Wrap(ErrInvalidArgument, "width and height must be in [1,65535]")
	}
	if fpsDen == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "fps_den must be non-zero")
	}

	h := Header{
		Version:    Version2,
		Flags:      flags,
		Width:      uint16(width),
		Height:     uint16(height),
		FPSNum:     fpsNum,
		FPSDen:     fpsDen,
		Colorspace: colorspace,
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}

	e := &Encoder{
		log:             log,
		header:          h,
		yuvMode:         h.IsYUV(),
		hasAlpha:        h.HasAlpha(),
		sub:             h.Subsampling(),
		out:             qcodec.NewByteWriter(1 << 16),
		hasIndex:        flags&FlagHasIndex != 0,
		compressEnabled: compressionEnabled,
	}
	if compressionEnabled {
		e.scratch = qcodec.NewByteWriter(1 << 12)
	}
	log.Debug("encoder created", "width", width, "height", height, "yuv_mode", e.yuvMode, "has_alpha", e.hasAlpha)
	return e, nil
}

// WriteHeader emits the 24-byte file header with a placeholder
// total_frames, remembering where to patch it on Finish.
func (e *Encoder) WriteHeader() error {
	if e.finished {
		return errors.Wrap(ErrInvalidArgument, "encoder already finished")
	}
	e.totalFramesPos = e.out.Size() + 14
	e.out.WriteBytes(e.header.Encode())
	e.log.Debug("wrote file header")
	return nil
}

// EncodeKeyframe appends a SYNC chunk followed by a KEYFRAME chunk
// encoding pixels, records a keyframe-index entry when HAS_INDEX is
// set, and resets the temporal prediction state.
func (e *Encoder) EncodeKeyframe(pixels []qcodec.Pixel, timestamp uint32) error {
	if e.finished {
		return errors.Wrap(ErrInvalidArgument, "encoder already finished")
	}
	f := &qcodec.Frame{Width: int(e.header.Width), Height: int(e.header.Height), Pixels: pixels}

	syncOffset := e.out.Size()
	e.writeSync()
	if e.hasIndex {
		e.keyframeIndex = append(e.keyframeIndex, KeyframeIndexEntry{
			FrameNumber: e.frameNumber,
			ByteOffset:  uint64(syncOffset),
			Timestamp:   timestamp,
		})
	}

	var payload []byte
	var flags uint8
	if e.yuvMode {
		flags |= FrameFlagYUV
		payload = qcodec.EncodeYUVKeyframe(f, e.sub, e.hasAlpha)
		e.prevPlanes = qcodec.RGBAToYUV(f, e.sub, e.hasAlpha)
	} else {
		payload, e.cache = qcodec.EncodeRGBKeyframe(f)
		e.prevFrame = f.Clone()
	}

	e.writeFrameChunk(ChunkKeyframe, flags, timestamp, payload)
	e.frameNumber++
	e.log.Debug("encoded keyframe", "frame", e.frameNumber-1, "bytes", len(payload))
	return nil
}

// EncodePFrame appends a PFRAME chunk encoding pixels relative to the
// previously encoded frame. Before any keyframe has been written, it
// behaves as EncodeKeyframe (spec §4.7).
func (e *Encoder) EncodePFrame(pixels []qcodec.Pixel, timestamp uint32) error {
	if e.finished {
		return errors.Wrap(ErrInvalidArgument, "encoder already finished")
	}
	if e.prevFrame == nil && e.prevPlanes == nil {
		return e.EncodeKeyframe(pixels, timestamp)
	}
	f := &qcodec.Frame{Width: int(e.header.Width), Height: int(e.header.Height), Pixels: pixels}

	var payload []byte
	var flags uint8
	if e.yuvMode {
		flags |= FrameFlagYUV
		cur := qcodec.RGBAToYUV(f, e.sub, e.hasAlpha)
		payload = qcodec.EncodeYUVPFrame(e.prevPlanes, cur, e.sub, e.hasAlpha)
		e.prevPlanes = cur
	} else {
		payload = qcodec.EncodeRGBPFrame(e.prevFrame, f, e.cache)
		e.prevFrame = f.Clone()
	}

	e.writeFrameChunk(ChunkPFrame, flags, timestamp, payload)
	e.frameNumber++
	e.log.Debug("encoded pframe", "frame", e.frameNumber-1, "bytes", len(payload))
	return nil
}

// writeSync emits a SYNC chunk immediately before a keyframe.
func (e *Encoder) writeSync() {
	body := encodeSyncBody(e.frameNumber)
	ch := ChunkHeader{Type: ChunkSync, Size: uint32(len(body))}
	ch.Encode(e.out, e.header.Version)
	e.out.WriteBytes(body)
}

// writeFrameChunk applies the compression gating policy of spec §4.7 and
// emits a KEYFRAME or PFRAME chunk carrying payload.
func (e *Encoder) writeFrameChunk(typ uint8, flags uint8, timestamp uint32, payload []byte) {
	body := payload
	if e.compressEnabled {
		compressed, ok := lz4.Compress(payload)
		if ok && len(compressed)*100 < len(payload)*compressionThresholdPct {
			flags |= FrameFlagCompressed
			e.scratch.Reset()
			e.scratch.WriteU32(uint32(len(payload)))
			e.scratch.WriteBytes(compressed)
			body = e.scratch.Bytes()
		}
	}
	ch := ChunkHeader{Type: typ, Flags: flags, Size: uint32(len(body)), Timestamp: timestamp}
	ch.Encode(e.out, e.header.Version)
	e.out.WriteBytes(body)
}

// Finish writes the keyframe INDEX chunk (if enabled and non-empty) and
// the END chunk, patches total_frames into the file header, and returns
// the complete bitstream. Finish is idempotent: calling it again returns
// the same bytes without further mutation, and subsequent Encode calls
// fail with ErrInvalidArgument.
func (e *Encoder) Finish() ([]byte, error) {
	if !e.finished {
		if e.hasIndex && len(e.keyframeIndex) > 0 {
			body := encodeIndexBody(e.keyframeIndex)
			ch := ChunkHeader{Type: ChunkIndex, Size: uint32(len(body))}
			ch.Encode(e.out, e.header.Version)
			e.out.WriteBytes(body)
		}
		endCh := ChunkHeader{Type: ChunkEnd, Size: 0}
		endCh.Encode(e.out, e.header.Version)
		e.out.WriteBytes(endMarker())

		e.out.PatchU32(e.totalFramesPos, e.frameNumber)
		e.finished = true
		e.log.Info("finished encoding", "total_frames", e.frameNumber)
	}
	return e.out.Bytes(), nil
}

// endMarker returns the 8-byte end-of-stream marker shared with the
// opcode codecs.
func endMarker() []byte {
	return []byte{0, 0, 0, 0, 0, 0, 0, 1}
}
