/*
NAME
  colorconv.go

DESCRIPTION
  BT.601 RGBA<->YUV conversion and 4:2:0/4:2:2/4:4:4 chroma subsampling.

LICENSE
  See LICENSE file included with this package.
*/

package qov

import (
	"gonum.org/v1/gonum/mat"
)

// Subsampling identifies the chroma subsampling scheme of a YUV plane set.
type Subsampling int

const (
	Subsample420 Subsampling = iota // ceil(W/2) x ceil(H/2) chroma planes
	Subsample422                    // ceil(W/2) x H chroma planes
	Subsample444                    // W x H chroma planes, no averaging
)

// rgbToYUV and yuvToRGB are the BT.601 forward and inverse 3x3 coefficient
// matrices (operating on R,G,B and Y,U-128,V-128 respectively). Expressing
// the conversion as matrices, rather than six hand-written expressions,
// keeps the forward/inverse pair visibly consistent with each other.
var (
	rgbToYUV = mat.NewDense(3, 3, []float64{
		0.299, 0.587, 0.114,
		-0.147, -0.289, 0.436,
		0.615, -0.515, -0.100,
	})
	yuvToRGBMat = mat.NewDense(3, 3, []float64{
		1, 0, 1.140,
		1, -0.395, -0.581,
		1, 2.032, 0,
	})
)

func clampByte(v float64) uint8 {
	r := v + 0.5 // round to nearest
	switch {
	case r < 0:
		return 0
	case r > 255:
		return 255
	default:
		return uint8(r)
	}
}

// rgbToYUVSample converts one RGB triple to Y, U, V (each in [0,255]).
func rgbToYUVSample(r, g, b uint8) (y, u, v uint8) {
	in := mat.NewVecDense(3, []float64{float64(r), float64(g), float64(b)})
	var out mat.VecDense
	out.MulVec(rgbToYUV, in)
	y = clampByte(out.AtVec(0))
	u = clampByte(out.AtVec(1) + 128)
	v = clampByte(out.AtVec(2) + 128)
	return
}

// yuvToRGBSample converts one Y, U, V triple back to R, G, B.
func yuvToRGBSample(y, u, v uint8) (r, g, b uint8) {
	in := mat.NewVecDense(3, []float64{float64(y), float64(u) - 128, float64(v) - 128})
	var out mat.VecDense
	out.MulVec(yuvToRGBMat, in)
	r = clampByte(out.AtVec(0))
	g = clampByte(out.AtVec(1))
	b = clampByte(out.AtVec(2))
	return
}

// Planes holds the independent sample planes of a YUV(A) frame.
type Planes struct {
	Width, Height   int // luma (Y) and alpha plane dimensions
	CWidth, CHeight int // chroma (U, V) plane dimensions
	Y, U, V         []uint8
	A               []uint8 // nil when no alpha plane is carried
}

// chromaDims returns the chroma plane dimensions for a given luma size and
// subsampling scheme.
func chromaDims(w, h int, sub Subsampling) (cw, ch int) {
	switch sub {
	case Subsample420:
		return (w + 1) / 2, (h + 1) / 2
	case Subsample422:
		return (w + 1) / 2, h
	default: // Subsample444
		return w, h
	}
}

// RGBAToYUV converts a Frame to Y/U/V(/A) planes under the given
// subsampling scheme. hasAlpha controls whether an alpha plane is
// produced; when present it always has full (Width x Height) resolution
// and carries the source alpha verbatim.
func RGBAToYUV(f *Frame, sub Subsampling, hasAlpha bool) *Planes {
	w, h := f.Width, f.Height
	cw, ch := chromaDims(w, h, sub)
	p := &Planes{
		Width: w, Height: h,
		CWidth: cw, CHeight: ch,
		Y: make([]uint8, w*h),
		U: make([]uint8, cw*ch),
		V: make([]uint8, cw*ch),
	}
	if hasAlpha {
		p.A = make([]uint8, w*h)
	}

	// Per-pixel Y (and alpha), and accumulate U/V sums per chroma block.
	usum := make([]int, cw*ch)
	vsum := make([]int, cw*ch)
	count := make([]int, cw*ch)
	for y := 0; y < h; y++ {
		cy := y
		if sub == Subsample420 {
			cy = y / 2
		}
		for x := 0; x < w; x++ {
			px := f.At(x, y)
			yy, uu, vv := rgbToYUVSample(px.R, px.G, px.B)
			p.Y[y*w+x] = yy
			if hasAlpha {
				p.A[y*w+x] = px.A
			}
			cx := x
			if sub != Subsample444 {
				cx = x / 2
			}
			ci := cy*cw + cx
			usum[ci] += int(uu)
			vsum[ci] += int(vv)
			count[ci]++
		}
	}
	for i := range usum {
		if count[i] == 0 {
			continue
		}
		p.U[i] = uint8((usum[i] + count[i]/2) / count[i])
		p.V[i] = uint8((vsum[i] + count[i]/2) / count[i])
	}
	return p
}

// YUVToRGBA reconstructs a Frame from Y/U/V(/A) planes.
func YUVToRGBA(p *Planes, sub Subsampling) *Frame {
	f := NewFrame(p.Width, p.Height)
	for y := 0; y < p.Height; y++ {
		cy := y
		if sub == Subsample420 {
			cy = y / 2
		}
		for x := 0; x < p.Width; x++ {
			cx := x
			if sub != Subsample444 {
				cx = x / 2
			}
			ci := cy*p.CWidth + cx
			yy := p.Y[y*p.Width+x]
			r, g, b := yuvToRGBSample(yy, p.U[ci], p.V[ci])
			a := uint8(255)
			if p.A != nil {
				a = p.A[y*p.Width+x]
			}
			f.Set(x, y, Pixel{R: r, G: g, B: b, A: a})
		}
	}
	return f
}
