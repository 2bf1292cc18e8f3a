/*
NAME
  yuvframe.go

DESCRIPTION
  Assembles the per-plane YUV opcode streams (Y, U, V, optional A) into
  a single frame payload, and the reverse. Planes carry no length
  prefix; the caller must know each plane's sample count from the
  colorspace and resolution (spec §4.5).

LICENSE
  See LICENSE file included with this package.
*/

package qov

// EncodeYUVKeyframe converts f to planes under sub/hasAlpha and encodes
// each plane as an independent keyframe opcode stream, concatenated in Y,
// U, V, [A] order with the shared 8-byte end marker appended once at the
// end.
func EncodeYUVKeyframe(f *Frame, sub Subsampling, hasAlpha bool) []byte {
	p := RGBAToYUV(f, sub, hasAlpha)
	w := NewByteWriter(len(p.Y) + 2*len(p.U))
	encodePlaneKeyframe(w, p.Y)
	encodePlaneKeyframe(w, p.U)
	encodePlaneKeyframe(w, p.V)
	if hasAlpha {
		encodePlaneKeyframe(w, p.A)
	}
	w.WriteBytes(endMarker[:])
	return w.Bytes()
}

// EncodeYUVPFrame encodes each plane of cur (Y, U, V, and A when
// hasAlpha) as a P-frame opcode stream relative to the co-located planes
// of prev, with the shared 8-byte end marker appended once at the end.
// cur is already in plane form; sub is not consulted.
func EncodeYUVPFrame(prev, cur *Planes, sub Subsampling, hasAlpha bool) []byte {
	w := NewByteWriter(len(cur.Y) + 2*len(cur.U))
	encodePlanePFrame(w, cur.Y, prev.Y)
	encodePlanePFrame(w, cur.U, prev.U)
	encodePlanePFrame(w, cur.V, prev.V)
	if hasAlpha {
		encodePlanePFrame(w, cur.A, prev.A)
	}
	w.WriteBytes(endMarker[:])
	return w.Bytes()
}

// DecodeYUVKeyframe decodes a YUV keyframe payload (including its
// trailing end marker) into Planes sized for width x height under sub.
func DecodeYUVKeyframe(payload []byte, width, height int, sub Subsampling, hasAlpha bool) (*Planes, error) {
	cw, ch := chromaDims(width, height, sub)
	p := &Planes{Width: width, Height: height, CWidth: cw, CHeight: ch}
	pos := 0
	var err error
	if p.Y, err = decodePlaneKeyframe(payload, &pos, width*height); err != nil {
		return nil, err
	}
	if p.U, err = decodePlaneKeyframe(payload, &pos, cw*ch); err != nil {
		return nil, err
	}
	if p.V, err = decodePlaneKeyframe(payload, &pos, cw*ch); err != nil {
		return nil, err
	}
	if hasAlpha {
		if p.A, err = decodePlaneKeyframe(payload, &pos, width*height); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// DecodeYUVPFrame decodes a YUV P-frame payload relative to prev.
func DecodeYUVPFrame(prev *Planes, payload []byte, hasAlpha bool) (*Planes, error) {
	p := &Planes{Width: prev.Width, Height: prev.Height, CWidth: prev.CWidth, CHeight: prev.CHeight}
	pos := 0
	var err error
	if p.Y, err = decodePlanePFrame(payload, &pos, prev.Y); err != nil {
		return nil, err
	}
	if p.U, err = decodePlanePFrame(payload, &pos, prev.U); err != nil {
		return nil, err
	}
	if p.V, err = decodePlanePFrame(payload, &pos, prev.V); err != nil {
		return nil, err
	}
	if hasAlpha {
		if p.A, err = decodePlanePFrame(payload, &pos, prev.A); err != nil {
			return nil, err
		}
	}
	return p, nil
}
