// Package exportlog records export metadata in SQLite. It stores what was
// exported and where, never the project itself.
package exportlog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrNotFound = errors.New("export not found")

// timeLayout is fixed-width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one recorded export.
type Entry struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"sessionId"`
	Filename      string    `json:"filename"`
	Path          string    `json:"path"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	Shapes        int       `json:"shapes"`
	MeterPerPixel float64   `json:"meterPerPixel"`
	Bytes         int       `json:"bytes"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ============================================================
// SQLite Repository
// ============================================================

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Init applies the embedded migrations in name order.
func (r *Repository) Init(ctx context.Context) error {
	if err := r.runMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// Record stores e, filling ID and CreatedAt when they are empty.
func (r *Repository) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO exports (id, session_id, filename, path, width, height, shapes, meter_per_pixel, bytes, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `,
		e.ID, e.SessionID, e.Filename, e.Path, e.Width, e.Height, e.Shapes, e.MeterPerPixel, e.Bytes,
		e.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert export: %w", err)
	}
	return e, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Entry, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, session_id, filename, path, width, height, shapes, meter_per_pixel, bytes, created_at
        FROM exports
        WHERE id = ?
    `, id)

	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// List returns the newest entries first. An empty sessionID lists all
// sessions; limit <= 0 means no limit.
func (r *Repository) List(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	query := `
        SELECT id, session_id, filename, path, width, height, shapes, meter_per_pixel, bytes, created_at
        FROM exports
        WHERE (? = '' OR session_id = ?)
        ORDER BY created_at DESC, id
    `
	args := []any{sessionID, sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var (
		e       Entry
		created string
	)
	if err := s.Scan(&e.ID, &e.SessionID, &e.Filename, &e.Path, &e.Width, &e.Height, &e.Shapes, &e.MeterPerPixel, &e.Bytes, &created); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	e.CreatedAt = t
	return &e, nil
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(ctx context.Context) error {
	names, err := migrations.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	for _, entry := range names {
		data, err := migrations.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// OpenSQLite opens the database at dbPath, creating its directory. The
// caller registers the driver (github.com/ncruces/go-sqlite3/driver).
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
