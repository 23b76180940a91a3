// Package fsstore implements catalog.ContentStore on a local directory,
// one JSON document per record.
package fsstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dyluth/classify/pkg/catalog"
)

const fileExt = ".json"

// Store keeps each record at <dir>/<id>.json. Writes go to a temporary file in
// the same directory and are renamed into place, so readers see either the old
// document or the new one.
type Store struct {
	dir string
}

var _ catalog.ContentStore = (*Store)(nil)

// New creates the directory if needed and returns a store rooted at it.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, catalog.BackendError("init", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string {
	return s.dir
}

// Ping checks that the directory still exists.
func (s *Store) Ping(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return catalog.BackendError("ping", s.dir, err)
	}
	if !info.IsDir() {
		return catalog.BackendError("ping", s.dir, fmt.Errorf("not a directory"))
	}
	return nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+fileExt)
}

// Put atomically writes rec.
func (s *Store) Put(ctx context.Context, rec *catalog.Record) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return catalog.BackendError("put", rec.ID, err)
	}

	data, err := catalog.EncodeRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+rec.ID+".*.tmp")
	if err != nil {
		return catalog.BackendError("put", rec.ID, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return catalog.BackendError("put", rec.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return catalog.BackendError("put", rec.ID, err)
	}
	if err := os.Rename(tmpName, s.path(rec.ID)); err != nil {
		os.Remove(tmpName)
		return catalog.BackendError("put", rec.ID, err)
	}

	return nil
}

// Get reads and decodes the record file. IDs that are not UUIDs cannot name a
// file in the store and read as absent.
func (s *Store) Get(ctx context.Context, id string) (*catalog.Record, error) {
	if !catalog.IsValidID(id) {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, catalog.BackendError("get", id, err)
	}

	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, catalog.BackendError("get", id, err)
	}

	rec, err := catalog.DecodeRecord(data)
	if err != nil {
		return nil, catalog.CorruptError("get", id, err)
	}
	return rec, nil
}

// Delete removes the record file. Missing files are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if !catalog.IsValidID(id) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return catalog.BackendError("delete", id, err)
	}

	err := os.Remove(s.path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return catalog.BackendError("delete", id, err)
	}
	return nil
}

// GetBody loads the record and returns its body.
func (s *Store) GetBody(ctx context.Context, id string) (string, bool, error) {
	rec, err := s.Get(ctx, id)
	if err != nil || rec == nil {
		return "", false, err
	}
	return rec.Content, true, nil
}

// List returns the IDs of every *.json file in the directory.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, catalog.BackendError("list", "", err)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, catalog.BackendError("list", "", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, fileExt))
	}
	return ids, nil
}

// FindByHash scans every record. Unreadable records are skipped so that one
// corrupt file cannot block duplicate detection for the rest.
func (s *Store) FindByHash(ctx context.Context, hash string) (*catalog.Record, error) {
	ids, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if catalog.IsCorrupt(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if rec != nil && rec.ContentHash == hash {
			return rec, nil
		}
	}
	return nil, nil
}

// Close is a no-op; the store holds no open handles.
func (s *Store) Close() error {
	return nil
}
