package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andresmejia3/facefx/internal/compositor"
)

func TestSaveAndLoadFrame(t *testing.T) {
	dir := t.TempDir()
	f := compositor.NewFrame(4, 3)
	f.Fill([3]uint8{10, 20, 30})
	f.SetPixel(3, 2, [3]uint8{200, 100, 0})

	path := filepath.Join(dir, "nested", "out.png")
	if err := SaveFrame(path, f); err != nil {
		t.Fatalf("SaveFrame failed: %v", err)
	}

	got, err := LoadFrame(path)
	if err != nil {
		t.Fatalf("LoadFrame failed: %v", err)
	}
	if got.Width != 4 || got.Height != 3 {
		t.Fatalf("Expected 4x3, got %dx%d", got.Width, got.Height)
	}
	// PNG is lossless, so the round trip must be exact
	if got.Pixel(3, 2) != [3]uint8{200, 100, 0} || got.Pixel(0, 0) != [3]uint8{10, 20, 30} {
		t.Errorf("Pixels changed across PNG round trip: %v %v", got.Pixel(0, 0), got.Pixel(3, 2))
	}

	if err := SaveFrame(filepath.Join(dir, "out.bmp"), f); err == nil {
		t.Error("Expected an error for an unsupported extension")
	}
}

func TestReadFaces(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name      string
		content   string
		wantFaces int
		wantErr   bool
	}{
		{
			name:      "Bare array",
			content:   `[{"dominant_emotion":"happy","facial_area":{"x":1,"y":2,"w":3,"h":4,"left_eye":[5,6],"right_eye":[7,8]}}]`,
			wantFaces: 1,
		},
		{
			name:      "Frame record",
			content:   `{"frame":"a.png","faces":[{"emotion":"sad","facial_area":{"x":1,"y":2,"w":3,"h":4}},{"emotion":"neutral"}]}`,
			wantFaces: 2,
		},
		{
			name:      "Empty file",
			content:   "  \n",
			wantFaces: 0,
		},
		{
			name:    "Malformed",
			content: `[{"facial_area":`,
			wantErr: true,
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, string(rune('a'+i))+".json")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			faces, err := ReadFaces(path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadFaces failed: %v", err)
			}
			if len(faces) != tt.wantFaces {
				t.Errorf("Expected %d faces, got %d", tt.wantFaces, len(faces))
			}
		})
	}
}

func TestReadFaceFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faces.json")
	content := `[{"dominant_emotion":"Fear","facial_area":{"x":10,"y":20,"w":30,"h":40,"left_eye":[11.9,21],"right_eye":{"x":25,"y":21}},"landmarks":[[0.1,0.2],{"x":0.3,"y":0.4,"z":0.0}]}]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	faces, err := ReadFaces(path)
	if err != nil {
		t.Fatalf("ReadFaces failed: %v", err)
	}
	face := faces[0]
	if face.Emotion != "Fear" {
		t.Errorf("Expected emotion from dominant_emotion, got %q", face.Emotion)
	}
	a := face.Area
	if a == nil || a.X != 10 || a.Y != 20 || a.W != 30 || a.H != 40 {
		t.Fatalf("Unexpected facial area: %+v", a)
	}
	if !a.HasEyes() || a.LeftEye.X != 11 || a.RightEye.X != 25 {
		t.Errorf("Unexpected eyes: %+v %+v", a.LeftEye, a.RightEye)
	}
	if len(face.Landmarks) != 2 || face.Landmarks[1].Y != 0.4 {
		t.Errorf("Unexpected landmarks: %+v", face.Landmarks)
	}
}

func TestReadFrameRecords(t *testing.T) {
	input := strings.Join([]string{
		`{"frame":"0001.png","faces":[{"emotion":"happy","facial_area":{"x":1,"y":1,"w":2,"h":2}}]}`,
		``,
		`{"frame":"0002.png","faces":[]}`,
	}, "\n")

	records, err := ReadFrameRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadFrameRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[1].Frame != "0002.png" || len(records[0].Faces) != 1 {
		t.Errorf("Unexpected records: %+v", records)
	}

	if _, err := ReadFrameRecords(strings.NewReader(`{"faces":[]}`)); err == nil {
		t.Error("Expected an error for a record without a frame")
	}
}
