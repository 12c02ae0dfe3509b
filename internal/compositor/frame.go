package compositor

import (
	"image"
	"image/draw"
)

// Channels is the number of color samples per frame pixel.
const Channels = 3

// Frame is a mutable H×W×3 8-bit pixel buffer, row-major with the origin at the top-left.
// Channel order is whatever the caller decoded into it; FrameFromImage produces RGB.
//
// Operations in this package borrow the frame for the duration of a single call and keep no
// reference to it afterwards. Callers sharing a frame across goroutines must serialize writes.
type Frame struct {
	Pix    []uint8
	Stride int
	Width  int
	Height int
}

// NewFrame allocates a zeroed frame.
func NewFrame(w, h int) *Frame {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Frame{
		Pix:    make([]uint8, w*h*Channels),
		Stride: w * Channels,
		Width:  w,
		Height: h,
	}
}

// FrameFromImage copies img into a new RGB frame. Alpha is dropped.
func FrameFromImage(img image.Image) *Frame {
	b := img.Bounds()
	f := NewFrame(b.Dx(), b.Dy())

	// *image.RGBA is read directly; everything else goes through one draw.Src copy.
	var rgba *image.RGBA
	switch m := img.(type) {
	case *image.RGBA:
		rgba = m
	default:
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	rb := rgba.Bounds()
	for y := 0; y < f.Height; y++ {
		src := rgba.Pix[(y+rb.Min.Y-rgba.Rect.Min.Y)*rgba.Stride+(rb.Min.X-rgba.Rect.Min.X)*4:]
		dst := f.Pix[y*f.Stride:]
		for x := 0; x < f.Width; x++ {
			dst[x*3] = src[x*4]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}
	return f
}

// Bounds returns the frame rectangle, always anchored at (0, 0).
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// PixOffset returns the index of the first sample of pixel (x, y).
func (f *Frame) PixOffset(x, y int) int {
	return y*f.Stride + x*Channels
}

// Pixel returns the samples at (x, y). Out-of-range coordinates return zero.
func (f *Frame) Pixel(x, y int) [3]uint8 {
	if !(image.Point{X: x, Y: y}).In(f.Bounds()) {
		return [3]uint8{}
	}
	off := f.PixOffset(x, y)
	return [3]uint8{f.Pix[off], f.Pix[off+1], f.Pix[off+2]}
}

// SetPixel writes the samples at (x, y). Out-of-range coordinates are ignored.
func (f *Frame) SetPixel(x, y int, c [3]uint8) {
	if !(image.Point{X: x, Y: y}).In(f.Bounds()) {
		return
	}
	off := f.PixOffset(x, y)
	f.Pix[off], f.Pix[off+1], f.Pix[off+2] = c[0], c[1], c[2]
}

// Fill sets every pixel to c.
func (f *Frame) Fill(c [3]uint8) {
	for y := 0; y < f.Height; y++ {
		row := f.Pix[y*f.Stride : y*f.Stride+f.Width*Channels]
		for i := 0; i < len(row); i += Channels {
			row[i], row[i+1], row[i+2] = c[0], c[1], c[2]
		}
	}
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	pix := make([]uint8, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{Pix: pix, Stride: f.Stride, Width: f.Width, Height: f.Height}
}

// RGBA returns an opaque copy suitable for the standard image encoders.
func (f *Frame) RGBA() *image.RGBA {
	m := image.NewRGBA(f.Bounds())
	for y := 0; y < f.Height; y++ {
		src := f.Pix[y*f.Stride:]
		dst := m.Pix[y*m.Stride:]
		for x := 0; x < f.Width; x++ {
			dst[x*4] = src[x*3]
			dst[x*4+1] = src[x*3+1]
			dst[x*4+2] = src[x*3+2]
			dst[x*4+3] = 255
		}
	}
	return m
}
