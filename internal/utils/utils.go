package utils

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresmejia3/facefx/internal/compositor"
	"github.com/andresmejia3/facefx/internal/types"
	_ "golang.org/x/image/webp"
)

const megabyte = 1024 * 1024

// --- 1. Error Reporting ---

// ShowError prints a formatted error box to stderr without exiting, so RunE can still
// return the error to cobra.
func ShowError(context string, err error) {
	fmt.Fprintf(os.Stderr, "\n---------------------------------------------------------\n")
	fmt.Fprintf(os.Stderr, "🚨 FACEFX ERROR: %s\n", context)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DETAILS: %v\n", err)
	}
	fmt.Fprintf(os.Stderr, "---------------------------------------------------------\n")
}

// --- 2. Frame Files ---

// LoadFrame decodes an image file into an RGB frame.
func LoadFrame(path string) (*compositor.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", path, err)
	}
	return compositor.FrameFromImage(img), nil
}

// SaveFrame encodes frame by the extension of path: .png, or .jpg/.jpeg at quality 95.
func SaveFrame(path string, frame *compositor.Frame) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return fmt.Errorf("unsupported output format %q (use .png, .jpg or .jpeg)", ext)
	}

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	img := frame.RGBA()
	if ext == ".png" {
		err = png.Encode(out, img)
	} else {
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: 95})
	}
	if err != nil {
		out.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return out.Close()
}

// --- 3. Face Records ---

// ReadFaces parses a single-frame faces file. It accepts either a bare array of face records
// or a frame record object.
func ReadFaces(path string) ([]types.FaceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var faces []types.FaceRecord
		if err := json.Unmarshal(data, &faces); err != nil {
			return nil, fmt.Errorf("failed to parse faces %s: %w", path, err)
		}
		return faces, nil
	}
	var rec types.FrameRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse faces %s: %w", path, err)
	}
	return rec.Faces, nil
}

// ReadFrameRecords parses JSON Lines, one frame record per line. Blank lines are skipped.
func ReadFrameRecords(r io.Reader) ([]types.FrameRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*megabyte)

	var records []types.FrameRecord
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var rec types.FrameRecord
		if err := json.Unmarshal(text, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rec.Frame == "" {
			return nil, fmt.Errorf("line %d: missing \"frame\"", line)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
