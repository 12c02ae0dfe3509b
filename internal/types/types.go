package types

import (
	"encoding/json"
	"fmt"
)

// Geometry is the per-face input handed to a filter. It is implemented only by
// FacialArea and LandmarkSet.
type Geometry interface {
	geometry()
}

// Point is a pixel coordinate in frame space.
type Point struct {
	X int
	Y int
}

// UnmarshalJSON accepts both the detector's tuple form [x, y] and an object {"x": .., "y": ..}.
// Fractional coordinates are truncated toward zero.
func (p *Point) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("point must have 2 coordinates, got %d", len(pair))
		}
		p.X, p.Y = int(pair[0]), int(pair[1])
		return nil
	}
	var obj struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid point %s: %w", data, err)
	}
	if obj.X == nil || obj.Y == nil {
		return fmt.Errorf("point %s is missing a coordinate", data)
	}
	p.X, p.Y = int(*obj.X), int(*obj.Y)
	return nil
}

// MarshalJSON writes the tuple form.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

// FacialArea matches the "facial_area" object produced by the upstream detector.
type FacialArea struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	W        int    `json:"w"`
	H        int    `json:"h"`
	LeftEye  *Point `json:"left_eye,omitempty"`
	RightEye *Point `json:"right_eye,omitempty"`
}

func (FacialArea) geometry() {}

// HasEyes reports whether both eye coordinates are present.
func (a FacialArea) HasEyes() bool {
	return a.LeftEye != nil && a.RightEye != nil
}

// NormPoint is a landmark in normalized [0,1] frame coordinates.
type NormPoint struct {
	X float64
	Y float64
}

// UnmarshalJSON accepts [x, y] or {"x": .., "y": ..}; extra fields (z, visibility) are ignored.
func (p *NormPoint) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) < 2 {
			return fmt.Errorf("landmark must have at least 2 coordinates, got %d", len(pair))
		}
		p.X, p.Y = pair[0], pair[1]
		return nil
	}
	var obj struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid landmark %s: %w", data, err)
	}
	p.X, p.Y = obj.X, obj.Y
	return nil
}

// LandmarkSet is the dense landmark list used by the debug renderer. It is kept separate from
// FacialArea on purpose: the two come from different upstream models.
type LandmarkSet []NormPoint

func (LandmarkSet) geometry() {}

// FaceRecord is one detected face as emitted by the upstream classifier.
type FaceRecord struct {
	Emotion   string      `json:"emotion"`
	Area      *FacialArea `json:"facial_area,omitempty"`
	Landmarks LandmarkSet `json:"landmarks,omitempty"`
}

// UnmarshalJSON also accepts the detector's "dominant_emotion" key.
func (r *FaceRecord) UnmarshalJSON(data []byte) error {
	type plain FaceRecord
	var aux struct {
		plain
		Dominant string `json:"dominant_emotion"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = FaceRecord(aux.plain)
	if r.Emotion == "" {
		r.Emotion = aux.Dominant
	}
	return nil
}

// FrameRecord groups the faces detected in one frame image.
type FrameRecord struct {
	Frame string       `json:"frame"`
	Faces []FaceRecord `json:"faces"`
}

// RenderTask represents a single frame sent to a worker for rendering
type RenderTask struct {
	Index  int
	Record FrameRecord
}
