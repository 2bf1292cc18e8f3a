/*
NAME
  decoder.go

DESCRIPTION
  The qov streaming decoder orchestrator (spec §4.8): an incremental
  chunk index built from a growing byte source, and frame decode by
  either continuing linearly or replaying from the nearest preceding
  keyframe.

LICENSE
  See LICENSE file included with this package.
*/

package qov

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/rebizu/qov-sp/codec/lz4"
	qcodec "github.com/rebizu/qov-sp/codec/qov"
	"github.com/ausocean/utils/logging"
)

// DataSource is a possibly-still-growing byte source the decoder reads
// from, per spec §4.8.
type DataSource interface {
	// TotalSize returns the source's current length and whether that
	// length is final. A growing source reports ok == false until the
	// writer is known to be done.
	TotalSize() (size uint64, ok bool)

	// Read returns the length bytes starting at offset. It returns
	// ErrNotYetAvailable if the source has not yet received all of
	// those bytes.
	Read(offset, length uint64) ([]byte, error)

	// IsAvailable reports whether length bytes starting at offset are
	// currently readable without blocking.
	IsAvailable(offset, length uint64) bool
}

// Waiter is optionally implemented by a DataSource that can block until
// more data might have arrived, so the decoder need not busy-poll.
type Waiter interface {
	Wait()
}

// ChunkDescriptor records one chunk's framing as discovered by
// Decoder.BuildIndex.
type ChunkDescriptor struct {
	Type       uint8
	Flags      uint8
	Offset     uint64 // absolute offset of the chunk header
	Size       uint32 // payload size, as declared in the chunk header
	Timestamp  uint32
	FrameIndex int // index into the frame sequence, or -1 if not a frame chunk
}

// Decoder incrementally parses a qov bitstream and reconstructs frames
// on demand. It is not safe for concurrent use from multiple goroutines,
// though DecodeFrame internally serializes concurrent callers rather than
// rejecting them (spec §5: "a single decoding guard... awaiters yield
// until the guard is free").
type Decoder struct {
	log    logging.Logger
	source DataSource

	header   Header
	sub      qcodec.Subsampling
	hasAlpha bool

	descriptors    []ChunkDescriptor
	frameChunks    []int // descriptor index, keyed by frame index
	keyframeFrames []int // frame indices that are keyframes, ascending
	indexed        bool

	mu          sync.Mutex
	lastDecoded int // -1 before any frame has been decoded
	cache       *qcodec.ColorCache
	prevFrame   *qcodec.Frame
	prevPlanes  *qcodec.Planes
}

// NewDecoder returns a Decoder reading from source. log must not be nil.
func NewDecoder(source DataSource, log logging.Logger) (*Decoder, error) {
	if log == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "log must not be nil")
	}
	return &Decoder{log: log, source: source, lastDecoded: -1}, nil
}

// ParseHeader blocks until the 24-byte file header is available and
// validates it (spec §4.8 step 1).
func (d *Decoder) ParseHeader() (Header, error) {
	b, err := d.waitRead(0, HeaderSize)
	if err != nil {
		return Header{}, err
	}
	h, err := DecodeHeader(b)
	if err != nil {
		return Header{}, err
	}
	d.header = h
	d.sub = h.Subsampling()
	d.hasAlpha = h.HasAlpha()
	d.log.Debug("parsed header", "width", h.Width, "height", h.Height, "version", h.Version)
	return h, nil
}

// BuildIndex walks the chunk sequence from the end of the file header,
// recording a ChunkDescriptor for every chunk and a frame index for each
// KEYFRAME/PFRAME chunk, until it reaches an END chunk or the source is
// exhausted (spec §4.8 step 2).
func (d *Decoder) BuildIndex() error {
	chSize := uint64(ChunkHeaderSize(d.header.Version))
	pos := uint64(HeaderSize)
	for {
		hb, err := d.waitRead(pos, chSize)
		if err != nil {
			if errors.Is(err, ErrTruncatedInput) {
				d.log.Warning("index build stopped without END chunk", "offset", pos)
				break
			}
			return err
		}
		ch, err := DecodeChunkHeader(hb, d.header.Version)
		if err != nil {
			return err
		}

		desc := ChunkDescriptor{
			Type:       ch.Type,
			Flags:      ch.Flags,
			Offset:     pos,
			Size:       ch.Size,
			Timestamp:  ch.Timestamp,
			FrameIndex: -1,
		}
		if ch.Type == ChunkSync {
			body, err := d.waitRead(pos+chSize, uint64(ch.Size))
			if err != nil {
				return err
			}
			frameNumber, err := decodeSyncBody(body)
			if err != nil {
				return err
			}
			if int(frameNumber) != len(d.frameChunks) {
				return errors.Wrapf(ErrCorruptedStream, "sync chunk at %d announces frame %d, expected %d", pos, frameNumber, len(d.frameChunks))
			}
		}
		if ch.Type == ChunkKeyframe || ch.Type == ChunkPFrame {
			desc.FrameIndex = len(d.frameChunks)
			d.frameChunks = append(d.frameChunks, len(d.descriptors))
			if ch.Type == ChunkKeyframe {
				d.keyframeFrames = append(d.keyframeFrames, desc.FrameIndex)
			}
		}
		d.descriptors = append(d.descriptors, desc)

		if ch.Type == ChunkEnd {
			break
		}
		pos += chSize + uint64(ch.Size)
	}
	d.indexed = true
	d.log.Debug("built chunk index", "chunks", len(d.descriptors), "frames", len(d.frameChunks))
	return nil
}

// FrameCount returns the number of KEYFRAME/PFRAME chunks discovered so
// far by BuildIndex.
func (d *Decoder) FrameCount() int { return len(d.frameChunks) }

// KeyframeIndices returns the frame indices, ascending, that are
// keyframes.
func (d *Decoder) KeyframeIndices() []int { return d.keyframeFrames }

// DecodeFrame returns the fully reconstructed frame i. If i is the frame
// immediately after the last one decoded, decoding continues
// incrementally; otherwise the decoder resets to the nearest keyframe at
// or before i and replays forward (spec §4.8 step 3, the seek invariant).
func (d *Decoder) DecodeFrame(i int) (*qcodec.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if i < 0 || i >= len(d.frameChunks) {
		return nil, errors.Wrap(ErrInvalidArgument, "frame index out of range")
	}

	if i == d.lastDecoded+1 {
		f, err := d.decodeOneFrame(i)
		if err != nil {
			return nil, err
		}
		d.lastDecoded = i
		return f, nil
	}

	start := 0
	for _, kf := range d.keyframeFrames {
		if kf > i {
			break
		}
		start = kf
	}
	d.resetState()
	d.log.Debug("seeking", "target", i, "replay_from", start)

	var f *qcodec.Frame
	for j := start; j <= i; j++ {
		var err error
		f, err = d.decodeOneFrame(j)
		if err != nil {
			return nil, err
		}
	}
	d.lastDecoded = i
	return f, nil
}

// resetState clears the temporal prediction state so the next decoded
// frame must be a keyframe.
func (d *Decoder) resetState() {
	d.cache = nil
	d.prevFrame = nil
	d.prevPlanes = nil
}

// decodeOneFrame decodes frame i from its chunk payload, applying LZ4
// decompression when flagged, and updates the running cache/previous-
// frame state.
func (d *Decoder) decodeOneFrame(i int) (*qcodec.Frame, error) {
	desc := d.descriptors[d.frameChunks[i]]
	chSize := uint64(ChunkHeaderSize(d.header.Version))
	payloadOffset := desc.Offset + chSize

	raw, err := d.waitRead(payloadOffset, uint64(desc.Size))
	if err != nil {
		return nil, err
	}
	payload := raw
	if desc.Flags&FrameFlagCompressed != 0 {
		if len(payload) < 4 {
			return nil, ErrCorruptedStream
		}
		uncompressedLen := be32(payload[0:4])
		payload, err = lz4.Decompress(payload[4:], int(uncompressedLen))
		if err != nil {
			return nil, err
		}
	}

	yuv := desc.Flags&FrameFlagYUV != 0
	isKey := desc.Type == ChunkKeyframe
	width, height := int(d.header.Width), int(d.header.Height)

	var frame *qcodec.Frame
	switch {
	case yuv && isKey:
		planes, err := qcodec.DecodeYUVKeyframe(payload, width, height, d.sub, d.hasAlpha)
		if err != nil {
			return nil, err
		}
		d.prevPlanes = planes
		frame = qcodec.YUVToRGBA(planes, d.sub)

	case yuv && !isKey:
		if d.prevPlanes == nil {
			return nil, errors.Wrap(ErrCorruptedStream, "pframe before keyframe")
		}
		planes, err := qcodec.DecodeYUVPFrame(d.prevPlanes, payload, d.hasAlpha)
		if err != nil {
			return nil, err
		}
		d.prevPlanes = planes
		frame = qcodec.YUVToRGBA(planes, d.sub)

	case isKey:
		f, cache, err := qcodec.DecodeRGBKeyframe(payload, width, height)
		if err != nil {
			return nil, err
		}
		d.cache = cache
		d.prevFrame = f
		frame = f

	default:
		if d.prevFrame == nil {
			return nil, errors.Wrap(ErrCorruptedStream, "pframe before keyframe")
		}
		f, err := qcodec.DecodeRGBPFrame(d.prevFrame, payload, d.cache)
		if err != nil {
			return nil, err
		}
		d.prevFrame = f
		frame = f
	}

	frame.Timestamp = desc.Timestamp
	frame.Keyframe = isKey
	frame.Number = uint32(i)
	return frame, nil
}

// Stats is the aggregate view returned by Decoder.FileStats: the file
// header, every chunk's framing, the keyframe index, the stream's total
// duration, and the chunk-size statistics of §4.13.
type Stats struct {
	Header          Header
	Descriptors     []ChunkDescriptor
	KeyframeIndices []int
	TotalDuration   uint32 // timestamp of the last frame chunk
	Chunks          ChunkStats
}

// FileStats returns the header, chunk descriptors, keyframe indices,
// total duration, and chunk-size statistics BuildIndex has discovered so
// far (spec §6 "file_stats", extended per §4.13). BuildIndex must have
// been called first.
func (d *Decoder) FileStats() (Stats, error) {
	if !d.indexed {
		return Stats{}, errors.Wrap(ErrInvalidArgument, "BuildIndex has not been called")
	}

	sizes := make([]float64, 0, len(d.frameChunks))
	var onDisk, uncompressed float64
	compressedCount := 0
	var duration uint32

	chSize := uint64(ChunkHeaderSize(d.header.Version))
	for _, di := range d.frameChunks {
		desc := d.descriptors[di]
		sizes = append(sizes, float64(desc.Size))
		duration = desc.Timestamp

		if desc.Flags&FrameFlagCompressed == 0 {
			onDisk += float64(desc.Size)
			uncompressed += float64(desc.Size)
			continue
		}
		compressedCount++
		onDisk += float64(desc.Size) - 4
		prefix, err := d.waitRead(desc.Offset+chSize, 4)
		if err != nil {
			return Stats{}, err
		}
		uncompressed += float64(be32(prefix))
	}

	return Stats{
		Header:          d.header,
		Descriptors:     append([]ChunkDescriptor(nil), d.descriptors...),
		KeyframeIndices: append([]int(nil), d.keyframeFrames...),
		TotalDuration:   duration,
		Chunks:          computeChunkStats(sizes, compressedCount, onDisk, uncompressed),
	}, nil
}

// waitRead blocks (via the source's Waiter interface, if implemented)
// until length bytes at offset are available, or returns
// ErrTruncatedInput once the source reports a final size that cannot
// satisfy the request.
func (d *Decoder) waitRead(offset, length uint64) ([]byte, error) {
	for !d.source.IsAvailable(offset, length) {
		if total, ok := d.source.TotalSize(); ok && offset+length > total {
			return nil, errors.Wrap(ErrTruncatedInput, "source exhausted before request satisfied")
		}
		if w, ok := d.source.(Waiter); ok {
			w.Wait()
			continue
		}
		return nil, errors.Wrap(ErrTruncatedInput, "data not yet available and source cannot wait")
	}
	return d.source.Read(offset, length)
}
