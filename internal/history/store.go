// Package history keeps a sqlite ledger of delivered messages. The ledger is
// informational: the cache file alone decides what gets uploaded.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Delivery is one accepted message. Part is zero for unsplit audio.
type Delivery struct {
	ID          int64
	RunID       string
	Task        string
	Chat        string
	Key         string
	URL         string
	Title       string
	Part        int
	Parts       int
	SizeBytes   int64
	DeliveredAt time.Time
}

// Store wraps the ledger database.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the ledger at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// Record appends a delivery and returns its row id.
func (s *Store) Record(ctx context.Context, d Delivery) (int64, error) {
	if d.DeliveredAt.IsZero() {
		d.DeliveredAt = time.Now()
	}
	if d.Parts <= 0 {
		d.Parts = 1
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO deliveries (
            run_id, task, chat, cache_key, url, title, part, parts, size_bytes, delivered_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.RunID, d.Task, d.Chat, nullableString(d.Key), d.URL, nullableString(d.Title),
		d.Part, d.Parts, d.SizeBytes, d.DeliveredAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert delivery: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Recent returns up to limit deliveries, newest first. An empty task matches
// every task.
func (s *Store) Recent(ctx context.Context, task string, limit int) ([]Delivery, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, run_id, task, chat, cache_key, url, title, part, parts, size_bytes, delivered_at
        FROM deliveries`
	args := []any{}
	if task = strings.TrimSpace(task); task != "" {
		query += ` WHERE task = ?`
		args = append(args, task)
	}
	query += ` ORDER BY delivered_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		var (
			d         Delivery
			key       sql.NullString
			title     sql.NullString
			delivered string
		)
		if err := rows.Scan(&d.ID, &d.RunID, &d.Task, &d.Chat, &key, &d.URL, &title,
			&d.Part, &d.Parts, &d.SizeBytes, &delivered); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		d.Key = key.String
		d.Title = title.String
		if d.DeliveredAt, err = time.Parse(time.RFC3339Nano, delivered); err != nil {
			return nil, fmt.Errorf("parse delivered_at %q: %w", delivered, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}
	return out, nil
}

func nullableString(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
