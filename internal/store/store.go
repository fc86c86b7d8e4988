package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no palette has the requested id.
var ErrNotFound = errors.New("palette not found")

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Record is one generated palette.
type Record struct {
	ID          int64     `json:"id"`
	SourcePath  string    `json:"source_path"`
	MaxColors   int       `json:"max_colors"`
	IgnoreAlpha bool      `json:"ignore_alpha"`
	Aggregation string    `json:"aggregation"`
	TotalPixels int       `json:"total_pixels"`
	CreatedAt   time.Time `json:"created_at"`
	Colors      []Color   `json:"colors"`
}

// Color is one palette entry, in palette order.
type Color struct {
	Hex        string `json:"hex"`
	Alpha      uint8  `json:"alpha"`
	Population int    `json:"population"`
}

// Save stores rec and returns its id. A zero CreatedAt is set to now.
func (s *Store) Save(ctx context.Context, rec Record) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("start save tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO palettes(source_path, max_colors, ignore_alpha, aggregation, total_pixels, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SourcePath,
		rec.MaxColors,
		rec.IgnoreAlpha,
		rec.Aggregation,
		rec.TotalPixels,
		rec.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert palette: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read palette id: %w", err)
	}

	for i, c := range rec.Colors {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO palette_colors(palette_id, position, hex, alpha, population) VALUES (?, ?, ?, ?, ?)",
			id, i, c.Hex, c.Alpha, c.Population,
		); err != nil {
			return 0, fmt.Errorf("insert palette color %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit palette: %w", err)
	}
	return id, nil
}

// Get loads the palette with the given id.
func (s *Store) Get(ctx context.Context, id int64) (*Record, error) {
	recs, err := s.query(ctx, "WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return &recs[0], nil
}

// Recent returns up to limit palettes, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	return s.query(ctx, "ORDER BY created_at DESC, id DESC LIMIT ?", limit)
}

// ForPath returns up to limit palettes generated from path, newest first.
func (s *Store) ForPath(ctx context.Context, path string, limit int) ([]Record, error) {
	return s.query(ctx, "WHERE source_path = ? ORDER BY created_at DESC, id DESC LIMIT ?", path, limit)
}

// Delete removes a palette and its colors.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM palettes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete palette %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete palette %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

func (s *Store) query(ctx context.Context, clause string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_path, max_colors, ignore_alpha, aggregation, total_pixels, created_at
		 FROM palettes `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("query palettes: %w", err)
	}

	var recs []Record
	for rows.Next() {
		var (
			rec     Record
			created string
		)
		if err := rows.Scan(&rec.ID, &rec.SourcePath, &rec.MaxColors, &rec.IgnoreAlpha,
			&rec.Aggregation, &rec.TotalPixels, &created); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan palette: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			rows.Close()
			return nil, fmt.Errorf("parse created_at of palette %d: %w", rec.ID, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate palettes: %w", err)
	}
	rows.Close()

	for i := range recs {
		colors, err := s.colors(ctx, recs[i].ID)
		if err != nil {
			return nil, err
		}
		recs[i].Colors = colors
	}
	return recs, nil
}

func (s *Store) colors(ctx context.Context, id int64) ([]Color, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT hex, alpha, population FROM palette_colors WHERE palette_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("query colors of palette %d: %w", id, err)
	}
	defer rows.Close()

	var colors []Color
	for rows.Next() {
		var c Color
		if err := rows.Scan(&c.Hex, &c.Alpha, &c.Population); err != nil {
			return nil, fmt.Errorf("scan color of palette %d: %w", id, err)
		}
		colors = append(colors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate colors of palette %d: %w", id, err)
	}
	return colors, nil
}
