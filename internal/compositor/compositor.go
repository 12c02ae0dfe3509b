// Package compositor holds the frame buffer and the primitives that write into it.
//
// Every mutating primitive validates its whole target before writing the first pixel, so a
// call that returns an error has left the frame untouched.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"math"
)

var (
	// ErrGeometryOutOfBounds is returned when a target rectangle does not lie entirely inside
	// the frame or is empty.
	ErrGeometryOutOfBounds = errors.New("geometry out of bounds")
	// ErrInvalidLayer is returned when a layer's planes do not match its size or carry alpha
	// outside [0, 1].
	ErrInvalidLayer = errors.New("invalid overlay layer")
)

// Layer is an overlay split into a normalized alpha plane and an RGB plane, both row-major.
// Alpha has Width*Height entries and RGB has Width*Height*3.
type Layer struct {
	Width  int
	Height int
	Alpha  []float64
	RGB    []uint8
}

// CheckRect verifies that r lies within the frame and has positive width and height.
func CheckRect(f *Frame, r image.Rectangle) error {
	if r.Dx() <= 0 || r.Dy() <= 0 || r.Min.X < 0 || r.Min.Y < 0 || r.Max.X > f.Width || r.Max.Y > f.Height {
		return fmt.Errorf("%w: rect %v in %dx%d frame", ErrGeometryOutOfBounds, r, f.Width, f.Height)
	}
	return nil
}

func checkLayer(l Layer) error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidLayer, l.Width, l.Height)
	}
	n := l.Width * l.Height
	if len(l.Alpha) != n || len(l.RGB) != n*Channels {
		return fmt.Errorf("%w: %dx%d layer has %d alpha and %d color samples", ErrInvalidLayer, l.Width, l.Height, len(l.Alpha), len(l.RGB))
	}
	for i, a := range l.Alpha {
		if !(a >= 0 && a <= 1) {
			return fmt.Errorf("%w: alpha %v at %d", ErrInvalidLayer, a, i)
		}
	}
	return nil
}

// Blend composites layer onto f with its top-left corner at (x, y):
//
//	dst = round(a*src + (1-a)*dst)
//
// Straight alpha, linear, no gamma. Only pixels inside the layer rectangle are written.
func Blend(f *Frame, x, y int, l Layer) error {
	if err := checkLayer(l); err != nil {
		return err
	}
	if err := CheckRect(f, image.Rect(x, y, x+l.Width, y+l.Height)); err != nil {
		return err
	}

	for i := 0; i < l.Height; i++ {
		row := f.Pix[f.PixOffset(x, y+i):]
		for j := 0; j < l.Width; j++ {
			k := i*l.Width + j
			a := l.Alpha[k]
			if a == 0 {
				continue
			}
			src := l.RGB[k*Channels : k*Channels+Channels]
			dst := row[j*Channels : j*Channels+Channels]
			for c := 0; c < Channels; c++ {
				dst[c] = clampRound(a*float64(src[c]) + (1-a)*float64(dst[c]))
			}
		}
	}
	return nil
}

// ScaleChannel multiplies one channel inside r by factor, rounding to nearest and
// saturating at 255.
func ScaleChannel(f *Frame, r image.Rectangle, channel int, factor float64) error {
	if channel < 0 || channel >= Channels {
		return fmt.Errorf("channel %d out of range", channel)
	}
	if err := CheckRect(f, r); err != nil {
		return err
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := f.PixOffset(r.Min.X, y) + channel
		for x := r.Min.X; x < r.Max.X; x++ {
			f.Pix[off] = clampRound(float64(f.Pix[off]) * factor)
			off += Channels
		}
	}
	return nil
}

// FillRect paints the part of r that overlaps the frame. Anything outside is dropped silently.
func FillRect(f *Frame, r image.Rectangle, c [3]uint8) {
	r = r.Intersect(f.Bounds())
	if r.Empty() {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := f.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			f.Pix[off], f.Pix[off+1], f.Pix[off+2] = c[0], c[1], c[2]
			off += Channels
		}
	}
}

func clampRound(v float64) uint8 {
	v = math.Round(v)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
