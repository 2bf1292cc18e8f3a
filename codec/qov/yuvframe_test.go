/*
NAME
  yuvframe_test.go

LICENSE
  See LICENSE file included with this package.
*/

package qov

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func gradientFrame(w, h int) *Frame {
	f := &Frame{Width: w, Height: h, Pixels: make([]Pixel, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Pixels[y*w+x] = Pixel{
				R: uint8((x * 17) % 256),
				G: uint8((y * 23) % 256),
				B: uint8((x + y*5) % 256),
				A: 255,
			}
		}
	}
	return f
}

// TestRoundTripYUVKeyframe is spec invariant 2: the opcode layer is
// lossless, so decoding a YUV keyframe payload must reproduce exactly
// yuv_to_rgba(rgba_to_yuv(F)), not F itself (the colorspace conversion is
// lossy, the opcode codec is not).
func TestRoundTripYUVKeyframe(t *testing.T) {
	for _, sub := range []Subsampling{Subsample420, Subsample422, Subsample444} {
		for _, hasAlpha := range []bool{false, true} {
			f := gradientFrame(6, 4)
			want := YUVToRGBA(RGBAToYUV(f, sub, hasAlpha), sub)

			payload := EncodeYUVKeyframe(f, sub, hasAlpha)
			planes, err := DecodeYUVKeyframe(payload, f.Width, f.Height, sub, hasAlpha)
			if err != nil {
				t.Fatalf("sub=%v alpha=%v: DecodeYUVKeyframe: %v", sub, hasAlpha, err)
			}
			got := YUVToRGBA(planes, sub)
			if diff := cmp.Diff(want.Pixels, got.Pixels); diff != "" {
				t.Errorf("sub=%v alpha=%v: pixel mismatch (-want +got):\n%s", sub, hasAlpha, diff)
			}
		}
	}
}

// TestRoundTripYUVPFrame chains a YUV keyframe and P-frame through
// encode/decode.
func TestRoundTripYUVPFrame(t *testing.T) {
	sub := Subsample420
	f0 := solidFrame(4, 4, Pixel{10, 20, 30, 255})
	f1 := gradientFrame(4, 4)

	p0 := RGBAToYUV(f0, sub, false)
	keyPayload := EncodeYUVKeyframe(f0, sub, false)
	decodedP0, err := DecodeYUVKeyframe(keyPayload, f0.Width, f0.Height, sub, false)
	if err != nil {
		t.Fatalf("DecodeYUVKeyframe: %v", err)
	}
	if diff := cmp.Diff(p0, decodedP0); diff != "" {
		t.Fatalf("keyframe plane mismatch (-want +got):\n%s", diff)
	}

	p1 := RGBAToYUV(f1, sub, false)
	pPayload := EncodeYUVPFrame(p0, p1, sub, false)
	decodedP1, err := DecodeYUVPFrame(decodedP0, pPayload, false)
	if err != nil {
		t.Fatalf("DecodeYUVPFrame: %v", err)
	}
	if diff := cmp.Diff(p1, decodedP1); diff != "" {
		t.Errorf("pframe plane mismatch (-want +got):\n%s", diff)
	}
}

// TestS6YUV420PlaneOrdering is spec scenario S6: a 4x4 keyframe in
// colorspace 0x10 (YUV 4:2:0) produces three consecutive plane streams
// (Y:16, U:4, V:4) followed by the end marker; adding alpha appends a
// fourth 16-sample plane before the end marker.
func TestS6YUV420PlaneOrdering(t *testing.T) {
	f := solidFrame(4, 4, Pixel{40, 80, 120, 255})

	payload := EncodeYUVKeyframe(f, Subsample420, false)
	planes, err := DecodeYUVKeyframe(payload, 4, 4, Subsample420, false)
	if err != nil {
		t.Fatalf("DecodeYUVKeyframe: %v", err)
	}
	if len(planes.Y) != 16 || len(planes.U) != 4 || len(planes.V) != 4 || planes.A != nil {
		t.Fatalf("unexpected plane sizes: Y=%d U=%d V=%d A=%v",
			len(planes.Y), len(planes.U), len(planes.V), planes.A)
	}
	if !bytesEqual(payload[len(payload)-8:], endMarker[:]) {
		t.Fatalf("payload does not end with the end marker")
	}

	payloadA := EncodeYUVKeyframe(f, Subsample420, true)
	planesA, err := DecodeYUVKeyframe(payloadA, 4, 4, Subsample420, true)
	if err != nil {
		t.Fatalf("DecodeYUVKeyframe (alpha): %v", err)
	}
	if len(planesA.A) != 16 {
		t.Fatalf("expected a 16-sample alpha plane, got %d", len(planesA.A))
	}
}

// TestPlanePFrameCacheSlotZero exercises a P-frame plane sample that
// genuinely hits value-cache slot 0 a second time: opcode 0x00 is
// reserved for SKIP_LONG in P-frame planes, so a real hit on slot 0 must
// not be encoded as INDEX 0x00.
func TestPlanePFrameCacheSlotZero(t *testing.T) {
	ref := []uint8{10, 20}
	cur := []uint8{64, 64} // 64*3 % 64 == 0, so both samples hash to slot 0

	w := NewByteWriter(8)
	encodePlanePFrame(w, cur, ref)
	payload := w.Bytes()
	if payload[0] == 0x00 {
		t.Fatalf("first sample encoded as opcode 0x00 unexpectedly")
	}

	pos := 0
	decoded, err := decodePlanePFrame(payload, &pos, ref)
	if err != nil {
		t.Fatalf("decodePlanePFrame: %v", err)
	}
	if diff := cmp.Diff(cur, decoded); diff != "" {
		t.Errorf("plane pframe mismatch (-want +got):\n%s", diff)
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
