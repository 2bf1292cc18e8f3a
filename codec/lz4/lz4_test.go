/*
NAME
  lz4_test.go

LICENSE
  See LICENSE file included with this package.
*/

package lz4

import (
	"bytes"
	"math/rand"
	"testing"
)

// roundTrip compresses s and decompresses the result (or s itself, if
// Compress declined to compress), checking the outcome equals s. This is
// spec invariant 6: decompress(compress(s) or s, |s|) = s.
func roundTrip(t *testing.T, s []byte) {
	t.Helper()
	compressed, ok := Compress(s)
	var out []byte
	var err error
	if ok {
		out, err = Decompress(compressed, len(s))
	} else {
		out = s
	}
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, s) {
		t.Fatalf("round trip mismatch: got %v, want %v", out, s)
	}
}

func TestRoundTripEmpty(t *testing.T) {
	roundTrip(t, nil)
}

func TestRoundTripShort(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 8} {
		roundTrip(t, bytes.Repeat([]byte{'x'}, n))
	}
}

func TestRoundTripRepeated(t *testing.T) {
	roundTrip(t, bytes.Repeat([]byte{'a'}, 14))
	roundTrip(t, bytes.Repeat([]byte{'a'}, 1000))
}

func TestRoundTripRandom(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for _, n := range []int{0, 1, 5, 16, 100, 4096} {
		buf := make([]byte, n)
		r.Read(buf)
		roundTrip(t, buf)
	}
}

func TestRoundTripMixed(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(bytes.Repeat([]byte{'q'}, 50))
	buf.WriteString("a short literal run with no repeats 12345")
	buf.Write(bytes.Repeat([]byte{'z'}, 300))
	roundTrip(t, buf.Bytes())
}

func TestCompressGating(t *testing.T) {
	// Highly compressible input should compress.
	in := bytes.Repeat([]byte{'a'}, 1000)
	_, ok := Compress(in)
	if !ok {
		t.Fatalf("expected compressible input to be reported compressible")
	}

	// Incompressible random input should be rejected by the 95% gate.
	r := rand.New(rand.NewSource(2))
	in = make([]byte, 1000)
	r.Read(in)
	if _, ok := Compress(in); ok {
		t.Fatalf("expected random input to be rejected by the compression gate")
	}
}

func TestDecompressCorruptedOffset(t *testing.T) {
	// Token: 0 literals, match length nibble 0 -> offset field required but
	// points before the start of output.
	src := []byte{0x00, 0x01, 0x00}
	if _, err := Decompress(src, 4); err == nil {
		t.Fatalf("expected error for out-of-window offset")
	}
}
