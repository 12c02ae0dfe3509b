package filter

import (
	"image"

	"github.com/andresmejia3/facefx/internal/compositor"
	"github.com/andresmejia3/facefx/internal/overlay"
	"github.com/andresmejia3/facefx/internal/types"
)

// Overlay proportions, relative to the face box. Tuned by eye; keep them exact.
const (
	haloWidthRatio  = 1.5
	haloHeightRatio = 0.3
	haloRaiseRatio  = 0.5 // halo sits half a face above the box

	hornsHeightRatio = 0.4
	hornsRaiseRatio  = 0.2

	tearsSizeRatio  = 0.3
	tearsDropRatio  = 0.1 // below the eye
	tearsRightShift = 0.25

	sweatHeightRatio = 0.5
	fearRedFactor    = 1.9

	eyeWidthRatio       = 0.5
	eyeHeightRatio      = 0.3
	eyeRaiseRatio       = 0.1
	eyeLeftShiftRatio   = 0.18
	eyeRightShiftRatio  = 0.35
	surpriseLinesWidth  = 1.5
	surpriseLinesHeight = 0.3
	surpriseLinesRaise  = 0.5
)

// redChannel is the red sample index in RGB frames.
const redChannel = 0

// planner is implemented by the filters that composite resized assets.
type planner interface {
	plan(g types.Geometry) ([]placement, error)
}

// Targets returns the rectangles flt would write for g, in drawing order. Filters that
// composite nothing return nil.
func Targets(flt Filter, g types.Geometry) ([]image.Rectangle, error) {
	p, ok := flt.(planner)
	if !ok {
		return nil, nil
	}
	ps, err := p.plan(g)
	if err != nil {
		return nil, err
	}
	rs := make([]image.Rectangle, len(ps))
	for i, pl := range ps {
		rs[i] = pl.rect()
	}
	return rs, nil
}

// Happy draws a halo above the head.
type Happy struct {
	halo *overlay.Asset
}

func NewHappy(halo *overlay.Asset) *Happy { return &Happy{halo: halo} }

func (*Happy) Kind() Kind { return KindHappy }

func (h *Happy) Apply(f *compositor.Frame, g types.Geometry) error {
	ps, err := h.plan(g)
	if err != nil {
		return err
	}
	return composite(f, ps...)
}

func (h *Happy) plan(g types.Geometry) ([]placement, error) {
	a, err := facialArea(g)
	if err != nil {
		return nil, err
	}
	return []placement{haloPlacement(h.halo, a, haloWidthRatio, haloHeightRatio, haloRaiseRatio)}, nil
}

// haloPlacement centers an overlay wider than the face above it. The surprise lines reuse it.
func haloPlacement(asset *overlay.Asset, a types.FacialArea, widthRatio, heightRatio, raiseRatio float64) placement {
	return placement{
		x:   clamp0(int(float64(a.X) - float64(a.W)/4)),
		y:   clamp0(a.Y - scale(a.H, raiseRatio)),
		img: asset.Resize(scale(a.W, widthRatio), scale(a.H, heightRatio)),
	}
}

// Angry draws horns on the forehead.
type Angry struct {
	horns *overlay.Asset
}

func NewAngry(horns *overlay.Asset) *Angry { return &Angry{horns: horns} }

func (*Angry) Kind() Kind { return KindAngry }

func (an *Angry) Apply(f *compositor.Frame, g types.Geometry) error {
	ps, err := an.plan(g)
	if err != nil {
		return err
	}
	return composite(f, ps...)
}

func (an *Angry) plan(g types.Geometry) ([]placement, error) {
	a, err := facialArea(g)
	if err != nil {
		return nil, err
	}
	return []placement{{
		x:   clamp0(a.X),
		y:   clamp0(a.Y - scale(a.H, hornsRaiseRatio)),
		img: an.horns.Resize(a.W, scale(a.H, hornsHeightRatio)),
	}}, nil
}

// Sad draws a tear under each eye. The right tear is the left one mirrored.
type Sad struct {
	tears *overlay.Asset
}

func NewSad(tears *overlay.Asset) *Sad { return &Sad{tears: tears} }

func (*Sad) Kind() Kind { return KindSad }

func (s *Sad) Apply(f *compositor.Frame, g types.Geometry) error {
	ps, err := s.plan(g)
	if err != nil {
		return err
	}
	return composite(f, ps...)
}

func (s *Sad) plan(g types.Geometry) ([]placement, error) {
	a, err := facialAreaWithEyes(g)
	if err != nil {
		return nil, err
	}
	left := s.tears.Resize(scale(a.W, tearsSizeRatio), scale(a.H, tearsSizeRatio))
	drop := scale(a.H, tearsDropRatio)
	return []placement{
		{
			x:   clamp0(a.LeftEye.X),
			y:   clamp0(a.LeftEye.Y + drop),
			img: left,
		},
		{
			x:   clamp0(a.RightEye.X - scale(a.W, tearsRightShift)),
			y:   clamp0(a.RightEye.Y + drop),
			img: overlay.Mirror(left),
		},
	}, nil
}

// Fear flushes the upper half of the face red and draws cold sweat over it.
type Fear struct {
	sweat *overlay.Asset
}

func NewFear(sweat *overlay.Asset) *Fear { return &Fear{sweat: sweat} }

func (*Fear) Kind() Kind { return KindFear }

func (fe *Fear) Apply(f *compositor.Frame, g types.Geometry) error {
	ps, err := fe.plan(g)
	if err != nil {
		return err
	}
	a, _ := facialArea(g)
	// The sweat rectangle contains the flushed band, so checking it covers both writes.
	// The band itself has no 1px floor and is empty for faces under two pixels tall.
	if err := compositor.CheckRect(f, ps[0].rect()); err != nil {
		return err
	}
	x, y := ps[0].x, ps[0].y
	band := image.Rect(x, y, x+a.W, y+scale(a.H, sweatHeightRatio))
	if !band.Empty() {
		if err := compositor.ScaleChannel(f, band, redChannel, fearRedFactor); err != nil {
			return err
		}
	}
	return composite(f, ps...)
}

func (fe *Fear) plan(g types.Geometry) ([]placement, error) {
	a, err := facialArea(g)
	if err != nil {
		return nil, err
	}
	return []placement{{
		x:   clamp0(a.X),
		y:   clamp0(a.Y),
		img: fe.sweat.Resize(a.W, scale(a.H, sweatHeightRatio)),
	}}, nil
}

// Surprise draws exclamation lines above the head and wide eyes over both eyes.
type Surprise struct {
	lines *overlay.Asset
	eye   *overlay.Asset
}

func NewSurprise(lines, eye *overlay.Asset) *Surprise { return &Surprise{lines: lines, eye: eye} }

func (*Surprise) Kind() Kind { return KindSurprise }

func (s *Surprise) Apply(f *compositor.Frame, g types.Geometry) error {
	ps, err := s.plan(g)
	if err != nil {
		return err
	}
	return composite(f, ps...)
}

func (s *Surprise) plan(g types.Geometry) ([]placement, error) {
	a, err := facialAreaWithEyes(g)
	if err != nil {
		return nil, err
	}
	left := s.eye.Resize(scale(a.W, eyeWidthRatio), scale(a.H, eyeHeightRatio))
	raise := scale(a.H, eyeRaiseRatio)
	return []placement{
		haloPlacement(s.lines, a, surpriseLinesWidth, surpriseLinesHeight, surpriseLinesRaise),
		{
			x:   clamp0(a.LeftEye.X - scale(a.W, eyeLeftShiftRatio)),
			y:   clamp0(a.LeftEye.Y - raise),
			img: left,
		},
		{
			x:   clamp0(a.RightEye.X - scale(a.W, eyeRightShiftRatio)),
			y:   clamp0(a.RightEye.Y - raise),
			img: overlay.Mirror(left),
		},
	}, nil
}
