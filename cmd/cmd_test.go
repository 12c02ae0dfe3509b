package cmd

import (
	"bufio"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/andresmejia3/facefx/internal/compositor"
	"github.com/andresmejia3/facefx/internal/filter"
	"github.com/andresmejia3/facefx/internal/types"
	"github.com/andresmejia3/facefx/internal/utils"
)

func TestResolveAssets(t *testing.T) {
	got := resolveAssets("art", filter.Assets{Horns: "db:horns"})
	want := filter.Assets{
		Halo:          filepath.Join("art", "halo.png"),
		Horns:         "db:horns",
		Tears:         filepath.Join("art", "tears.png"),
		Sweat:         filepath.Join("art", "sweat.png"),
		SurpriseLines: filepath.Join("art", "surprise_lines.png"),
		SurprisedEye:  filepath.Join("art", "surprised_eye.png"),
	}
	if got != want {
		t.Errorf("resolveAssets() = %+v, want %+v", got, want)
	}
}

func TestAssetFetcherSkipsDatabaseForFiles(t *testing.T) {
	db, err := assetFetcher(context.Background(), resolveAssets("art", filter.Assets{}))
	if err != nil || db != nil {
		t.Errorf("Expected no database for file assets, got %v, %v", db, err)
	}
}

func TestNeededKinds(t *testing.T) {
	faces := []types.FaceRecord{{Emotion: "happy"}, {Emotion: "Neutral"}, {Emotion: "sad"}, {Emotion: "HAPPY"}}

	tests := []struct {
		name  string
		force filter.Kind
		want  []filter.Kind
	}{
		{"From emotions", "", []filter.Kind{filter.KindNone, filter.KindHappy, filter.KindSad}},
		{"Forced filter", filter.KindFear, []filter.Kind{filter.KindFear}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := neededKinds(tt.force, faces); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("neededKinds() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := confirm(bufio.NewReader(strings.NewReader(tt.input)), io.Discard, "Sure?"); got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func writeHalo(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{B: 255, A: 200})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestRunApply(t *testing.T) {
	dir := t.TempDir()
	assetDir := filepath.Join(dir, "assets")
	if err := os.Mkdir(assetDir, 0755); err != nil {
		t.Fatal(err)
	}
	// Only the halo exists; the other filters are never loaded for a happy face
	writeHalo(t, filepath.Join(assetDir, "halo.png"))

	input := filepath.Join(dir, "frame.png")
	frame := compositor.NewFrame(100, 100)
	frame.Fill([3]uint8{50, 50, 50})
	if err := utils.SaveFrame(input, frame); err != nil {
		t.Fatal(err)
	}

	facesPath := filepath.Join(dir, "faces.json")
	faces := `[{"emotion":"happy","facial_area":{"x":30,"y":30,"w":20,"h":20}},{"emotion":"angry"}]`
	if err := os.WriteFile(facesPath, []byte(faces), 0644); err != nil {
		t.Fatal(err)
	}

	opts := Options{
		FacesPath:  facesPath,
		OutputPath: filepath.Join(dir, "out", "frame.png"),
		AssetDir:   assetDir,
	}

	// Strict mode fails on the angry face, whose horns asset is missing
	strict := opts
	strict.Strict = true
	if err := runApply(context.Background(), input, strict); err == nil {
		t.Fatal("Expected strict run to fail without the horns asset")
	}

	writeHalo(t, filepath.Join(assetDir, "horns.png"))
	if err := runApply(context.Background(), input, opts); err != nil {
		t.Fatalf("runApply failed: %v", err)
	}

	out, err := utils.LoadFrame(opts.OutputPath)
	if err != nil {
		t.Fatalf("Output missing: %v", err)
	}
	// Halo spans x 25..55 and y 20..26 for this face
	if got := out.Pixel(30, 22); got[2] <= 50 {
		t.Errorf("Expected blue halo at (30,22), got %v", got)
	}
	if got := out.Pixel(90, 90); got != [3]uint8{50, 50, 50} {
		t.Errorf("Pixel outside the overlay changed: %v", got)
	}
}

func TestRunApplyRejectsSameOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "frame.png")
	facesPath := filepath.Join(dir, "faces.json")
	if err := utils.SaveFrame(input, compositor.NewFrame(4, 4)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(facesPath, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}

	opts := Options{FacesPath: facesPath, OutputPath: input}
	if err := runApply(context.Background(), input, opts); err == nil {
		t.Error("Expected an error when output overwrites input")
	}

	opts.OutputPath = filepath.Join(dir, "out.png")
	opts.ForceFilter = "sparkles"
	if err := runApply(context.Background(), input, opts); err == nil {
		t.Error("Expected an error for an unknown --filter")
	}
}
