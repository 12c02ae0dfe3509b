package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresmejia3/facefx/internal/overlay"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when no asset has the requested name.
var ErrNotFound = errors.New("asset not found")

// Store manages the PostgreSQL connection holding the overlay asset library.
type Store struct {
	conn *pgx.Conn
}

// AssetInfo describes a stored asset without its image bytes.
type AssetInfo struct {
	Name      string
	Width     int
	Height    int
	Size      int
	CreatedAt time.Time
}

// New establishes a connection to the database and ensures the schema is initialized.
func New(ctx context.Context, connString string) (*Store, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

// initSchema creates the asset table if it doesn't exist (Auto-Migration).
func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS overlay_assets (
			name TEXT PRIMARY KEY,
			data BYTEA NOT NULL,
			width INT NOT NULL,
			height INT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

// Close terminates the database connection.
func (s *Store) Close(ctx context.Context) {
	s.conn.Close(ctx)
}

// PutAsset stores an encoded overlay under name, replacing any previous version.
// The bytes must decode to an image with an alpha channel.
func (s *Store) PutAsset(ctx context.Context, name string, data []byte) error {
	if name == "" {
		return fmt.Errorf("asset name must not be empty")
	}
	a, err := overlay.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}

	_, err = s.conn.Exec(ctx, `
		INSERT INTO overlay_assets (name, data, width, height, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, width = EXCLUDED.width,
			height = EXCLUDED.height, created_at = NOW()
	`, name, data, a.Width(), a.Height())
	return err
}

// GetAsset returns the encoded bytes stored under name. It satisfies overlay.Fetcher.
func (s *Store) GetAsset(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.conn.QueryRow(ctx, "SELECT data FROM overlay_assets WHERE name = $1", name).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ListAssets returns every stored asset ordered by name.
func (s *Store) ListAssets(ctx context.Context) ([]AssetInfo, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT name, width, height, octet_length(data), created_at
		FROM overlay_assets ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []AssetInfo
	for rows.Next() {
		var a AssetInfo
		if err := rows.Scan(&a.Name, &a.Width, &a.Height, &a.Size, &a.CreatedAt); err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// DeleteAsset removes the asset stored under name.
func (s *Store) DeleteAsset(ctx context.Context, name string) error {
	tag, err := s.conn.Exec(ctx, "DELETE FROM overlay_assets WHERE name = $1", name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// Reset drops the asset table to clear the database state.
// The table is recreated on the next connection.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `DROP TABLE IF EXISTS overlay_assets CASCADE;`)
	return err
}
