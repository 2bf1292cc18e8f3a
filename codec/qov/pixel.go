/*
NAME
  pixel.go

DESCRIPTION
  Pixel and Frame data types for the qov codec.

LICENSE
  See LICENSE file included with this package.
*/

package qov

// Pixel is a single RGBA sample. Alpha defaults to 255 (opaque) wherever
// a colorspace or container flag indicates no alpha channel is present.
type Pixel struct {
	R, G, B, A uint8
}

// opaqueBlack is the pixel every keyframe's predictor starts from.
var opaqueBlack = Pixel{R: 0, G: 0, B: 0, A: 255}

// Equal reports whether p and q are identical in all four channels.
func (p Pixel) Equal(q Pixel) bool {
	return p == q
}

// hashRGBA computes the 64-slot color-cache index for a pixel, per the
// cache addressing function hash(R,G,B,A) = (R*3 + G*5 + B*7 + A*11) mod 64.
func hashRGBA(p Pixel) uint8 {
	return (p.R*3 + p.G*5 + p.B*7 + p.A*11) % 64
}

// Frame is a single decoded or to-be-encoded RGBA image: a raster-order
// pixel buffer, a presentation timestamp in microseconds, a keyframe
// flag, and a monotonically increasing frame number.
type Frame struct {
	Width, Height int
	Pixels        []Pixel // raster order, row-major, len == Width*Height
	Timestamp     uint32  // microseconds
	Keyframe      bool
	Number        uint32
}

// NewFrame allocates a Frame of the given dimensions with every pixel
// defaulted to opaque black.
func NewFrame(width, height int) *Frame {
	f := &Frame{
		Width:  width,
		Height: height,
		Pixels: make([]Pixel, width*height),
	}
	for i := range f.Pixels {
		f.Pixels[i] = opaqueBlack
	}
	return f
}

// At returns the pixel at (x, y).
func (f *Frame) At(x, y int) Pixel {
	return f.Pixels[y*f.Width+x]
}

// Set assigns the pixel at (x, y).
func (f *Frame) Set(x, y int, p Pixel) {
	f.Pixels[y*f.Width+x] = p
}

// Clone returns a deep copy of f.
func (f *Frame) Clone() *Frame {
	g := &Frame{
		Width:     f.Width,
		Height:    f.Height,
		Pixels:    make([]Pixel, len(f.Pixels)),
		Timestamp: f.Timestamp,
		Keyframe:  f.Keyframe,
		Number:    f.Number,
	}
	copy(g.Pixels, f.Pixels)
	return g
}
