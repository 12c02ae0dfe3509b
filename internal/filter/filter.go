// Package filter implements the per-emotion placement strategies. Each filter owns its overlay
// assets, derives target rectangles from the face geometry using fixed ratios, and composites
// the resized overlays into the frame in place.
package filter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andresmejia3/facefx/internal/compositor"
	"github.com/andresmejia3/facefx/internal/overlay"
	"github.com/andresmejia3/facefx/internal/types"
)

// ErrInvalidFaceData is returned when the geometry handed to a filter lacks what it needs
// (wrong geometry type, missing eyes, non-positive face size).
var ErrInvalidFaceData = errors.New("invalid face data")

// Kind names a filter variant.
type Kind string

const (
	KindHappy          Kind = "happy"
	KindAngry          Kind = "angry"
	KindSad            Kind = "sad"
	KindFear           Kind = "fear"
	KindSurprise       Kind = "surprise"
	KindGalaxy         Kind = "galaxy"
	KindMediapipeDebug Kind = "mediapipe-debug"
	KindNone           Kind = "none"
)

// Kinds lists every variant.
func Kinds() []Kind {
	return []Kind{KindHappy, KindAngry, KindSad, KindFear, KindSurprise, KindGalaxy, KindMediapipeDebug, KindNone}
}

// ParseKind resolves a variant name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// EmotionKind maps a classifier label to the filter drawn for it. Neutral and unknown labels
// get no filter.
func EmotionKind(label string) Kind {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "happy":
		return KindHappy
	case "angry":
		return KindAngry
	case "sad":
		return KindSad
	case "fear":
		return KindFear
	case "surprise":
		return KindSurprise
	default:
		return KindNone
	}
}

// Filter draws one effect for one face. Apply mutates f in place and returns an error without
// touching f when the geometry is unusable or a target rectangle falls outside the frame.
type Filter interface {
	Kind() Kind
	Apply(f *compositor.Frame, g types.Geometry) error
}

// Assets names the source of every overlay. A location is a file path, or "db:<name>" for the
// asset store.
type Assets struct {
	Halo          string
	Horns         string
	Tears         string
	Sweat         string
	SurpriseLines string
	SurprisedEye  string
}

// New loads the assets kind needs and returns the filter. db may be nil when no location uses
// the store.
func New(ctx context.Context, kind Kind, assets Assets, db overlay.Fetcher) (Filter, error) {
	load := func(loc string) (*overlay.Asset, error) {
		if loc == "" {
			return nil, fmt.Errorf("%w: no source configured for %s", overlay.ErrAssetLoad, kind)
		}
		return overlay.Resolve(ctx, loc, db)
	}

	switch kind {
	case KindHappy:
		halo, err := load(assets.Halo)
		if err != nil {
			return nil, err
		}
		return NewHappy(halo), nil
	case KindAngry:
		horns, err := load(assets.Horns)
		if err != nil {
			return nil, err
		}
		return NewAngry(horns), nil
	case KindSad:
		tears, err := load(assets.Tears)
		if err != nil {
			return nil, err
		}
		return NewSad(tears), nil
	case KindFear:
		sweat, err := load(assets.Sweat)
		if err != nil {
			return nil, err
		}
		return NewFear(sweat), nil
	case KindSurprise:
		lines, err := load(assets.SurpriseLines)
		if err != nil {
			return nil, err
		}
		eye, err := load(assets.SurprisedEye)
		if err != nil {
			return nil, err
		}
		return NewSurprise(lines, eye), nil
	case KindGalaxy:
		return Galaxy{}, nil
	case KindMediapipeDebug:
		return NewMediapipeDebug(), nil
	case KindNone:
		return None{}, nil
	}
	return nil, fmt.Errorf("unknown filter %q", kind)
}

// NewSet builds one filter per kind. With no kinds it builds all of them.
func NewSet(ctx context.Context, assets Assets, db overlay.Fetcher, kinds ...Kind) (map[Kind]Filter, error) {
	if len(kinds) == 0 {
		kinds = Kinds()
	}
	set := make(map[Kind]Filter, len(kinds))
	for _, k := range kinds {
		if _, ok := set[k]; ok {
			continue
		}
		f, err := New(ctx, k, assets, db)
		if err != nil {
			return nil, fmt.Errorf("%s filter: %w", k, err)
		}
		set[k] = f
	}
	logger().Debug("filters loaded", "count", len(set))
	return set, nil
}
