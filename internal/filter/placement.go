package filter

import (
	"fmt"
	"image"

	"github.com/andresmejia3/facefx/internal/compositor"
	"github.com/andresmejia3/facefx/internal/overlay"
	"github.com/andresmejia3/facefx/internal/types"
)

// placement is one resized overlay and the top-left corner it is drawn at.
type placement struct {
	x, y int
	img  *image.NRGBA
}

func (p placement) rect() image.Rectangle {
	return image.Rect(p.x, p.y, p.x+p.img.Rect.Dx(), p.y+p.img.Rect.Dy())
}

// composite checks every placement before blending any, so a failure leaves f untouched.
// Later placements are drawn over earlier ones.
func composite(f *compositor.Frame, ps ...placement) error {
	for _, p := range ps {
		if err := compositor.CheckRect(f, p.rect()); err != nil {
			return err
		}
	}
	for _, p := range ps {
		if err := compositor.Blend(f, p.x, p.y, overlay.Planes(p.img)); err != nil {
			return err
		}
	}
	return nil
}

// scale returns int(v*ratio), truncated toward zero like the detector's reference tooling.
func scale(v int, ratio float64) int {
	return int(float64(v) * ratio)
}

// clamp0 pins a top-left coordinate to the frame edge. Sizes are never clamped.
func clamp0(v int) int {
	return max(v, 0)
}

func facialArea(g types.Geometry) (types.FacialArea, error) {
	var a types.FacialArea
	switch v := g.(type) {
	case types.FacialArea:
		a = v
	case *types.FacialArea:
		if v == nil {
			return a, fmt.Errorf("%w: nil facial area", ErrInvalidFaceData)
		}
		a = *v
	default:
		return a, fmt.Errorf("%w: expected facial area, got %T", ErrInvalidFaceData, g)
	}
	if a.W <= 0 || a.H <= 0 {
		return a, fmt.Errorf("%w: face size %dx%d", ErrInvalidFaceData, a.W, a.H)
	}
	return a, nil
}

func facialAreaWithEyes(g types.Geometry) (types.FacialArea, error) {
	a, err := facialArea(g)
	if err != nil {
		return a, err
	}
	if !a.HasEyes() {
		return a, fmt.Errorf("%w: eye coordinates required", ErrInvalidFaceData)
	}
	return a, nil
}
