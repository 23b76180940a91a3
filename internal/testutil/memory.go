// Package testutil provides in-memory catalog backends with failure injection
// and a miniredis-backed Redis client for unit tests.
package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/dyluth/classify/pkg/catalog"
)

// ContentStore is an in-memory catalog.ContentStore. Setting one of the *Err
// fields makes the matching operation fail with that error.
type ContentStore struct {
	mu      sync.Mutex
	records map[string]catalog.Record

	PutErr    error
	GetErr    error
	DeleteErr error
	ListErr   error
}

var _ catalog.ContentStore = (*ContentStore)(nil)

// NewContentStore returns an empty store.
func NewContentStore() *ContentStore {
	return &ContentStore{records: make(map[string]catalog.Record)}
}

func (s *ContentStore) Put(ctx context.Context, rec *catalog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	s.records[rec.ID] = copyRecord(rec)
	return nil
}

func (s *ContentStore) Get(ctx context.Context, id string) (*catalog.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	out := copyRecord(&rec)
	return &out, nil
}

func (s *ContentStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.records, id)
	return nil
}

func (s *ContentStore) GetBody(ctx context.Context, id string) (string, bool, error) {
	rec, err := s.Get(ctx, id)
	if err != nil || rec == nil {
		return "", false, err
	}
	return rec.Content, true, nil
}

func (s *ContentStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *ContentStore) FindByHash(ctx context.Context, hash string) (*catalog.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	for _, rec := range s.records {
		if rec.ContentHash == hash {
			out := copyRecord(&rec)
			return &out, nil
		}
	}
	return nil, nil
}

func (s *ContentStore) Close() error { return nil }

// Len returns the number of stored records.
func (s *ContentStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// TagIndex is an in-memory catalog.TagIndex with the same orphan semantics as
// the Redis implementation.
type TagIndex struct {
	mu      sync.Mutex
	members map[string]map[string]struct{}

	AddErr    error
	RemoveErr error
	ListErr   error
}

var _ catalog.TagIndex = (*TagIndex)(nil)

// NewTagIndex returns an empty index.
func NewTagIndex() *TagIndex {
	return &TagIndex{members: make(map[string]map[string]struct{})}
}

func (x *TagIndex) AddContentToTags(ctx context.Context, id string, tags []string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.AddErr != nil {
		return x.AddErr
	}
	for _, tag := range tags {
		set, ok := x.members[tag]
		if !ok {
			set = make(map[string]struct{})
			x.members[tag] = set
		}
		set[id] = struct{}{}
	}
	return nil
}

func (x *TagIndex) RemoveContentFromTags(ctx context.Context, id string, tags []string) ([]string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.RemoveErr != nil {
		return nil, x.RemoveErr
	}
	orphaned := []string{}
	for _, tag := range tags {
		set, ok := x.members[tag]
		if !ok {
			continue
		}
		delete(set, id)
		if len(set) == 0 {
			delete(x.members, tag)
			orphaned = append(orphaned, tag)
		}
	}
	return orphaned, nil
}

func (x *TagIndex) ListAllTags(ctx context.Context) ([]string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.ListErr != nil {
		return nil, x.ListErr
	}
	tags := make([]string, 0, len(x.members))
	for tag := range x.members {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

func (x *TagIndex) ListContentIDsForTags(ctx context.Context, tags []string) ([]string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.ListErr != nil {
		return nil, x.ListErr
	}
	union := make(map[string]struct{})
	for _, tag := range tags {
		for id := range x.members[tag] {
			union[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(union))
	for id := range union {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (x *TagIndex) Close() error { return nil }

func copyRecord(rec *catalog.Record) catalog.Record {
	out := *rec
	out.Tags = append([]string{}, rec.Tags...)
	return out
}
