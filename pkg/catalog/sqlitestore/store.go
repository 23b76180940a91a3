// Package sqlitestore implements catalog.ContentStore on a SQLite database
// using the pure-Go modernc.org/sqlite driver.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dyluth/classify/pkg/catalog"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id            TEXT PRIMARY KEY,
	content       TEXT NOT NULL,
	source_url    TEXT NOT NULL DEFAULT '',
	content_hash  TEXT NOT NULL DEFAULT '',
	tags          TEXT NOT NULL DEFAULT '[]',
	created_at_ms INTEGER NOT NULL,
	updated_at_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_content_hash ON records(content_hash);
`

// Store is a SQLite-backed content store. One row per record; tags are kept as
// a JSON array column because the tag index lives elsewhere.
type Store struct {
	db   *sql.DB
	path string
}

var _ catalog.ContentStore = (*Store)(nil)

// New opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an in-memory database.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path cannot be empty")
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, catalog.BackendError("open", path, err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is its own database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, catalog.BackendError("migrate", path, err)
	}

	return &Store{db: db, path: path}, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return catalog.BackendError("ping", s.path, err)
	}
	return nil
}

// Put inserts or replaces the row for rec.
func (s *Store) Put(ctx context.Context, rec *catalog.Record) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (id, content, source_url, content_hash, tags, created_at_ms, updated_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			source_url = excluded.source_url,
			content_hash = excluded.content_hash,
			tags = excluded.tags,
			created_at_ms = excluded.created_at_ms,
			updated_at_ms = excluded.updated_at_ms`,
		rec.ID, rec.Content, rec.SourceURL, rec.ContentHash, string(tags),
		rec.CreatedAt.UnixMilli(), rec.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return catalog.BackendError("put", rec.ID, err)
	}
	return nil
}

const selectRecord = `SELECT id, content, source_url, content_hash, tags, created_at_ms, updated_at_ms FROM records`

// Get returns the record for id, or (nil, nil).
func (s *Store) Get(ctx context.Context, id string) (*catalog.Record, error) {
	row := s.db.QueryRowContext(ctx, selectRecord+` WHERE id = ?`, id)
	return scanRecord(row, "get", id)
}

// Delete removes the row for id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		return catalog.BackendError("delete", id, err)
	}
	return nil
}

// GetBody selects only the content column.
func (s *Store) GetBody(ctx context.Context, id string) (string, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM records WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, catalog.BackendError("get_body", id, err)
	}
	return body, true, nil
}

// List returns every record ID ordered by creation time.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM records ORDER BY created_at_ms, id`)
	if err != nil {
		return nil, catalog.BackendError("list", "", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, catalog.BackendError("list", "", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, catalog.BackendError("list", "", err)
	}
	return ids, nil
}

// FindByHash uses the content_hash index. The newest match wins.
func (s *Store) FindByHash(ctx context.Context, hash string) (*catalog.Record, error) {
	row := s.db.QueryRowContext(ctx,
		selectRecord+` WHERE content_hash = ? ORDER BY created_at_ms DESC LIMIT 1`, hash)
	return scanRecord(row, "find_by_hash", hash)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanRecord(row *sql.Row, op, key string) (*catalog.Record, error) {
	var (
		rec                  catalog.Record
		tags                 string
		createdMs, updatedMs int64
	)

	err := row.Scan(&rec.ID, &rec.Content, &rec.SourceURL, &rec.ContentHash, &tags, &createdMs, &updatedMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, catalog.BackendError(op, key, err)
	}

	if err := json.Unmarshal([]byte(tags), &rec.Tags); err != nil {
		return nil, catalog.CorruptError(op, key, fmt.Errorf("failed to unmarshal tags: %w", err))
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	rec.CreatedAt = time.UnixMilli(createdMs).UTC()
	rec.UpdatedAt = time.UnixMilli(updatedMs).UTC()

	if err := rec.Validate(); err != nil {
		return nil, catalog.CorruptError(op, key, err)
	}
	return &rec, nil
}
