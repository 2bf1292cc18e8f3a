/*
NAME
  chunk.go

DESCRIPTION
  Chunk framing: the 8- or 10-byte chunk header (depending on container
  version), chunk type constants, and the SYNC/INDEX/END chunk bodies,
  per spec §4.6.

LICENSE
  See LICENSE file included with this package.
*/

package qov

import (
	qcodec "github.com/rebizu/qov-sp/codec/qov"
)

// Chunk type tags.
const (
	ChunkSync     uint8 = 0x00
	ChunkKeyframe uint8 = 0x01
	ChunkPFrame   uint8 = 0x02
	ChunkAudio    uint8 = 0x10
	ChunkIndex    uint8 = 0xF0
	ChunkEnd      uint8 = 0xFF
)

// Frame-chunk flag bits (KEYFRAME/PFRAME).
const (
	FrameFlagYUV        uint8 = 1 << 0 // opcode payload is per-plane YUV, not RGB
	FrameFlagHasMotion  uint8 = 1 << 1 // motion vectors present (never set by this encoder)
	FrameFlagCompressed uint8 = 1 << 4 // payload is LZ4-wrapped
)

// syncMagic is the ASCII body prefix of a SYNC chunk.
var syncMagic = [4]byte{'Q', 'O', 'V', 'S'}

// ChunkHeader is the per-chunk framing record common to both container
// versions.
type ChunkHeader struct {
	Type      uint8
	Flags     uint8
	Size      uint32 // payload size, excluding this header
	Timestamp uint32
}

// ChunkHeaderSize returns the on-wire size of a chunk header for the given
// container version (8 bytes for Version1, 10 for Version2).
func ChunkHeaderSize(version uint8) int {
	if version == Version1 {
		return 8
	}
	return 10
}

// Encode appends ch's on-wire chunk header to w, using the framing for
// the given container version.
func (ch ChunkHeader) Encode(w *qcodec.ByteWriter, version uint8) {
	w.WriteU8(ch.Type)
	w.WriteU8(ch.Flags)
	if version == Version1 {
		w.WriteU16(uint16(ch.Size))
	} else {
		w.WriteU32(ch.Size)
	}
	w.WriteU32(ch.Timestamp)
}

// DecodeChunkHeader parses a chunk header from b, which must hold at
// least ChunkHeaderSize(version) bytes.
func DecodeChunkHeader(b []byte, version uint8) (ChunkHeader, error) {
	n := ChunkHeaderSize(version)
	if len(b) < n {
		return ChunkHeader{}, ErrTruncatedInput
	}
	ch := ChunkHeader{Type: b[0], Flags: b[1]}
	if version == Version1 {
		ch.Size = uint32(be16(b[2:4]))
		ch.Timestamp = be32(b[4:8])
	} else {
		ch.Size = be32(b[2:6])
		ch.Timestamp = be32(b[6:10])
	}
	return ch, nil
}

// encodeSyncBody returns the 8-byte SYNC chunk body for the given frame
// number.
func encodeSyncBody(frameNumber uint32) []byte {
	w := qcodec.NewByteWriter(8)
	w.WriteBytes(syncMagic[:])
	w.WriteU32(frameNumber)
	return w.Bytes()
}

// decodeSyncBody parses a SYNC chunk body, returning the frame number.
func decodeSyncBody(b []byte) (uint32, error) {
	if len(b) != 8 || b[0] != syncMagic[0] || b[1] != syncMagic[1] || b[2] != syncMagic[2] || b[3] != syncMagic[3] {
		return 0, ErrCorruptedStream
	}
	return be32(b[4:8]), nil
}

// KeyframeIndexEntry records where one keyframe begins, for seeking.
type KeyframeIndexEntry struct {
	FrameNumber uint32
	ByteOffset  uint64
	Timestamp   uint32
}

// encodeIndexBody serializes the keyframe index chunk body: a u32 count
// followed by that many {u32 frame_number, u64 offset, u32 timestamp}
// entries.
func encodeIndexBody(entries []KeyframeIndexEntry) []byte {
	w := qcodec.NewByteWriter(4 + len(entries)*16)
	w.WriteU32(uint32(len(entries)))
	for _, e := range entries {
		w.WriteU32(e.FrameNumber)
		w.WriteU64(e.ByteOffset)
		w.WriteU32(e.Timestamp)
	}
	return w.Bytes()
}

// decodeIndexBody parses an INDEX chunk body.
func decodeIndexBody(b []byte) ([]KeyframeIndexEntry, error) {
	if len(b) < 4 {
		return nil, ErrCorruptedStream
	}
	count := be32(b[0:4])
	want := 4 + int(count)*16
	if len(b) != want {
		return nil, ErrCorruptedStream
	}
	entries := make([]KeyframeIndexEntry, count)
	pos := 4
	for i := range entries {
		entries[i] = KeyframeIndexEntry{
			FrameNumber: be32(b[pos : pos+4]),
			ByteOffset:  be64(b[pos+4 : pos+12]),
			Timestamp:   be32(b[pos+12 : pos+16]),
		}
		pos += 16
	}
	return entries, nil
}
