package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/andresmejia3/facefx/internal/overlay"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 128})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// TestStoreIntegration runs a full integration test against a real Postgres container.
// It requires Docker to be running.
func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// Explicitly check for Docker availability and fail hard if missing
	// We wrap this in a function to recover from panics inside testcontainers (e.g. socket not found)
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("testcontainers panicked: %v", r)
			}
		}()
		_, err = testcontainers.NewDockerClientWithOpts(ctx)
		return
	}()
	if err != nil {
		t.Fatalf("Docker not available, cannot run integration test: %v", err)
	}

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("facefx_test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate container: %v", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	// Initialize Store (runs migrations)
	s, err := New(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to connect to store: %v", err)
	}
	defer s.Close(ctx)

	// --- Test Scenarios ---

	halo := encodePNG(t, 12, 4)
	if err := s.PutAsset(ctx, "halo", halo); err != nil {
		t.Fatalf("PutAsset failed: %v", err)
	}
	if err := s.PutAsset(ctx, "broken", []byte("not an image")); !errors.Is(err, overlay.ErrAssetLoad) {
		t.Errorf("Expected ErrAssetLoad for undecodable bytes, got %v", err)
	}

	got, err := s.GetAsset(ctx, "halo")
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}
	if !bytes.Equal(got, halo) {
		t.Error("Stored bytes differ from the uploaded asset")
	}

	// Upsert replaces the previous version
	if err := s.PutAsset(ctx, "halo", encodePNG(t, 20, 5)); err != nil {
		t.Fatalf("PutAsset (replace) failed: %v", err)
	}
	if err := s.PutAsset(ctx, "horns", encodePNG(t, 8, 8)); err != nil {
		t.Fatalf("PutAsset failed: %v", err)
	}

	assets, err := s.ListAssets(ctx)
	if err != nil {
		t.Fatalf("ListAssets failed: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("Expected 2 assets, got %d", len(assets))
	}
	if assets[0].Name != "halo" || assets[0].Width != 20 || assets[0].Height != 5 {
		t.Errorf("Unexpected first asset: %+v", assets[0])
	}

	// The store plugs straight into overlay resolution
	a, err := overlay.Resolve(ctx, "db:horns", s)
	if err != nil {
		t.Fatalf("Resolve via store failed: %v", err)
	}
	if a.Width() != 8 {
		t.Errorf("Expected width 8, got %d", a.Width())
	}

	if err := s.DeleteAsset(ctx, "horns"); err != nil {
		t.Fatalf("DeleteAsset failed: %v", err)
	}
	if _, err := s.GetAsset(ctx, "horns"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteAsset(ctx, "horns"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting twice, got %v", err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
}
