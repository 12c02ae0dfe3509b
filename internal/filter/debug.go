package filter

import (
	"fmt"
	"image"

	"github.com/andresmejia3/facefx/internal/compositor"
	"github.com/andresmejia3/facefx/internal/types"
)

// Galaxy is a placeholder effect: it logs the face it was given and leaves the frame alone.
type Galaxy struct{}

func (Galaxy) Kind() Kind { return KindGalaxy }

func (Galaxy) Apply(_ *compositor.Frame, g types.Geometry) error {
	switch v := g.(type) {
	case types.LandmarkSet:
		logger().Debug("galaxy", "landmarks", len(v))
	default:
		logger().Debug("galaxy", "face", fmt.Sprintf("%+v", g))
	}
	return nil
}

// landmarkDotSize is the side of the square drawn per landmark, in pixels.
const landmarkDotSize = 4

// MediapipeDebug marks every landmark of a dense LandmarkSet with a small filled square.
type MediapipeDebug struct {
	Color [3]uint8
}

// NewMediapipeDebug returns the renderer with its default green.
func NewMediapipeDebug() *MediapipeDebug {
	return &MediapipeDebug{Color: [3]uint8{17, 143, 0}}
}

func (*MediapipeDebug) Kind() Kind { return KindMediapipeDebug }

// Apply draws at (int(x*W), int(y*H)) for each landmark. Dots that run off the frame are
// clipped rather than reported.
func (m *MediapipeDebug) Apply(f *compositor.Frame, g types.Geometry) error {
	set, ok := g.(types.LandmarkSet)
	if !ok {
		return fmt.Errorf("%w: expected landmark set, got %T", ErrInvalidFaceData, g)
	}
	w, h := float64(f.Width), float64(f.Height)
	for _, p := range set {
		x, y := int(p.X*w), int(p.Y*h)
		compositor.FillRect(f, image.Rect(x, y, x+landmarkDotSize, y+landmarkDotSize), m.Color)
	}
	return nil
}

// None is the identity filter.
type None struct{}

func (None) Kind() Kind { return KindNone }

func (None) Apply(*compositor.Frame, types.Geometry) error { return nil }
