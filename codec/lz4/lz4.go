/*
NAME
  lz4.go

DESCRIPTION
  A minimal implementation of the LZ4 block format (not the LZ4 frame
  format): a stream of {token, optional extra literal-length bytes,
  literals, 16-bit little-endian back-offset, optional extra match-length
  bytes} sequences. Used by the qov container to compress individual
  chunk payloads.

LICENSE
  See LICENSE file included with this package.
*/

// Package lz4 implements the LZ4 block compression format used to
// optionally compress qov container chunks.
package lz4

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	minMatch     = 4
	lastLiterals = 5 // the final 5 bytes of input are always literals
	hashBits     = 16
	hashSize     = 1 << hashBits
	maxOffset    = 1 << 16 // back-offset is a 16-bit field: 1..65535
)

// ErrCorruptedStream indicates a match offset pointed before the start of
// the output buffer, or a literal/match extension tried to read past the
// input.
var ErrCorruptedStream = errors.New("lz4: corrupted stream")

// hash computes the 16-bit hash table index for the 4-byte little-endian
// integer at the given position, per spec: multiply by 2654435769, then
// take the high 16 bits of the 32-bit product.
func hash(v uint32) uint32 {
	return (v * 2654435769) >> (32 - hashBits)
}

// Compress compresses src using the LZ4 block format. It returns
// ok == false -- a signal to the caller to store src uncompressed --
// when the compressed length would be at least 95% of len(src).
func Compress(src []byte) (dst []byte, ok bool) {
	dst = compressBlock(src)
	if len(dst)*100 >= len(src)*95 {
		return nil, false
	}
	return dst, true
}

func compressBlock(src []byte) []byte {
	n := len(src)
	dst := make([]byte, 0, n)

	if n < minMatch+lastLiterals {
		return appendLastLiterals(dst, src, 0)
	}

	var table [hashSize]int32
	for i := range table {
		table[i] = -1
	}

	anchor := 0
	i := 0
	matchLimit := n - lastLiterals // a match may not extend past here
	searchLimit := matchLimit - minMatch

	for i <= searchLimit {
		v := binary.LittleEndian.Uint32(src[i:])
		h := hash(v)
		cand := table[h]
		table[h] = int32(i)

		if cand < 0 || i-int(cand) > maxOffset-1 || i-int(cand) < 1 ||
			binary.LittleEndian.Uint32(src[cand:]) != v {
			i++
			continue
		}

		// Extend the match forward from i, cand.
		mlen := minMatch
		for i+mlen < matchLimit && src[cand+mlen] == src[i+mlen] {
			mlen++
		}

		offset := i - int(cand)
		dst = appendSequence(dst, src[anchor:i], offset, mlen)

		// Update the hash table for the skipped positions so future
		// matches can reference inside the match we just emitted.
		end := i + mlen
		for j := i + 1; j < end && j <= searchLimit; j++ {
			table[hash(binary.LittleEndian.Uint32(src[j:]))] = int32(j)
		}

		i = end
		anchor = i
	}

	return appendLastLiterals(dst, src, anchor)
}

// appendSequence appends one {token, literals, offset, match length}
// sequence.
func appendSequence(dst []byte, literals []byte, offset, matchLen int) []byte {
	litLen := len(literals)
	mlen := matchLen - minMatch

	var tokenLit, tokenMl int
	if litLen > 15 {
		tokenLit = 15
	} else {
		tokenLit = litLen
	}
	if mlen > 15 {
		tokenMl = 15
	} else {
		tokenMl = mlen
	}
	dst = append(dst, byte(tokenLit<<4|tokenMl))
	dst = appendExtra(dst, litLen, 15)
	dst = append(dst, literals...)

	var off [2]byte
	binary.LittleEndian.PutUint16(off[:], uint16(offset))
	dst = append(dst, off[:]...)

	dst = appendExtra(dst, mlen, 15)
	return dst
}

// appendExtra appends the 0xFF-run-plus-final-byte extension used when a
// length field (literal or match) meets or exceeds its 4-bit threshold.
func appendExtra(dst []byte, length, threshold int) []byte {
	if length < threshold {
		return dst
	}
	length -= threshold
	for length >= 255 {
		dst = append(dst, 0xFF)
		length -= 255
	}
	return append(dst, byte(length))
}

// appendLastLiterals appends a final literal-only sequence (no match, no
// offset) covering src[anchor:].
func appendLastLiterals(dst, src []byte, anchor int) []byte {
	literals := src[anchor:]
	litLen := len(literals)
	var tokenLit int
	if litLen > 15 {
		tokenLit = 15
	} else {
		tokenLit = litLen
	}
	dst = append(dst, byte(tokenLit<<4))
	dst = appendExtra(dst, litLen, 15)
	return append(dst, literals...)
}

// Decompress decompresses src, which must decode to exactly
// expectedLen bytes.
func Decompress(src []byte, expectedLen int) ([]byte, error) {
	dst := make([]byte, 0, expectedLen)
	i := 0
	for i < len(src) {
		token := src[i]
		i++

		litLen := int(token >> 4)
		if litLen == 15 {
			n, adv, err := readExtra(src, i)
			if err != nil {
				return nil, err
			}
			litLen += n
			i += adv
		}
		if i+litLen > len(src) {
			return nil, ErrCorruptedStream
		}
		dst = append(dst, src[i:i+litLen]...)
		i += litLen

		if i == len(src) {
			// Final sequence: literals only, no offset/match.
			break
		}

		if i+2 > len(src) {
			return nil, ErrCorruptedStream
		}
		offset := int(binary.LittleEndian.Uint16(src[i:]))
		i += 2
		if offset == 0 || offset > len(dst) {
			return nil, ErrCorruptedStream
		}

		mlen := int(token & 0xF)
		if mlen == 15 {
			n, adv, err := readExtra(src, i)
			if err != nil {
				return nil, err
			}
			mlen += n
			i += adv
		}
		mlen += minMatch

		start := len(dst) - offset
		for k := 0; k < mlen; k++ {
			dst = append(dst, dst[start+k])
		}
	}
	if len(dst) != expectedLen {
		return nil, ErrCorruptedStream
	}
	return dst, nil
}

// readExtra reads a run of 0xFF-valued extension bytes terminated by a
// final byte < 0xFF, returning the accumulated extra length and the
// number of bytes consumed.
func readExtra(src []byte, i int) (extra, consumed int, err error) {
	for {
		if i+consumed >= len(src) {
			return 0, 0, ErrCorruptedStream
		}
		b := src[i+consumed]
		consumed++
		extra += int(b)
		if b != 0xFF {
			break
		}
	}
	return extra, consumed, nil
}
