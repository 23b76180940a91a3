// Package query answers read requests against the content store and tag index.
//
// Reads tolerate the two known inconsistency windows: an ID listed under a
// tag whose record no longer exists is dropped from results, never reported
// as an error.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dyluth/classify/internal/logging"
	"github.com/dyluth/classify/pkg/catalog"
)

// Service is a read-only view over a content store and a tag index.
type Service struct {
	content catalog.ContentStore
	tags    catalog.TagIndex
	logger  *slog.Logger
}

// NewService creates a query service. logger may be nil.
func NewService(content catalog.ContentStore, tags catalog.TagIndex, logger *slog.Logger) *Service {
	return &Service{
		content: content,
		tags:    tags,
		logger:  logging.Component(logger, "query"),
	}
}

// AllTags returns the global tag set, sorted.
func (s *Service) AllTags(ctx context.Context) ([]string, error) {
	return s.tags.ListAllTags(ctx)
}

// ContentByTags returns every record carrying any of tags (union, not
// intersection), newest first. Tags are matched case-insensitively.
//
// IDs whose record is missing or unreadable are skipped. Backend failures are
// returned rather than skipped, so an unreachable store never reads as an
// empty result.
func (s *Service) ContentByTags(ctx context.Context, tags []string) ([]*catalog.Record, error) {
	tags = normalizeQueryTags(tags)
	if len(tags) == 0 {
		return []*catalog.Record{}, nil
	}

	ids, err := s.tags.ListContentIDsForTags(ctx, tags)
	if err != nil {
		return nil, err
	}

	records := make([]*catalog.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.content.Get(ctx, id)
		if catalog.IsCorrupt(err) {
			s.logger.Warn("skipping unreadable record", "content_id", id, "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		if rec == nil {
			s.logger.Debug("dropping stale tag reference", "content_id", id, "tags", tags)
			continue
		}
		records = append(records, rec)
	}

	sortNewestFirst(records)
	return records, nil
}

// Content returns the record for id, or (nil, nil) if it does not exist.
func (s *Service) Content(ctx context.Context, id string) (*catalog.Record, error) {
	return s.content.Get(ctx, id)
}

// ContentBody returns only the body of the record for id.
func (s *Service) ContentBody(ctx context.Context, id string) (string, bool, error) {
	return s.content.GetBody(ctx, id)
}

// Get is Content with absence reported as a *NotFoundError.
func (s *Service) Get(ctx context.Context, id string) (*catalog.Record, error) {
	rec, err := s.content.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &NotFoundError{ID: id}
	}
	return rec, nil
}

// IDs returns every stored record ID.
func (s *Service) IDs(ctx context.Context) ([]string, error) {
	return s.content.List(ctx)
}

// Filter narrows Recent. All criteria are ANDed; zero values disable a criterion.
type Filter struct {
	Since time.Time // created at or after
	Until time.Time // created at or before
	Tags  []string  // carries any of these tags
	Limit int       // maximum number of records returned
}

func (f *Filter) matches(rec *catalog.Record) bool {
	if !f.Since.IsZero() && rec.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && rec.CreatedAt.After(f.Until) {
		return false
	}
	if len(f.Tags) > 0 {
		for _, tag := range f.Tags {
			if rec.HasTag(tag) {
				return true
			}
		}
		return false
	}
	return true
}

// Recent lists stored records matching filter, newest first. Unreadable
// records are skipped with a warning.
func (s *Service) Recent(ctx context.Context, filter Filter) ([]*catalog.Record, error) {
	filter.Tags = normalizeQueryTags(filter.Tags)

	ids, err := s.content.List(ctx)
	if err != nil {
		return nil, err
	}

	records := []*catalog.Record{}
	for _, id := range ids {
		rec, err := s.content.Get(ctx, id)
		if catalog.IsCorrupt(err) {
			s.logger.Warn("skipping unreadable record", "content_id", id, "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		if rec == nil || !filter.matches(rec) {
			continue
		}
		records = append(records, rec)
	}

	sortNewestFirst(records)
	if filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	return records, nil
}

// Search is Recent driven by the tag index: with tags set, candidates come
// from ContentByTags instead of a scan of every stored record.
func (s *Service) Search(ctx context.Context, filter Filter) ([]*catalog.Record, error) {
	if len(normalizeQueryTags(filter.Tags)) == 0 {
		return s.Recent(ctx, filter)
	}

	candidates, err := s.ContentByTags(ctx, filter.Tags)
	if err != nil {
		return nil, err
	}

	filter.Tags = nil
	records := make([]*catalog.Record, 0, len(candidates))
	for _, rec := range candidates {
		if filter.matches(rec) {
			records = append(records, rec)
		}
	}
	if filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	return records, nil
}

// NotFoundError reports a record ID with no stored record.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("content with ID '%s' not found", e.ID)
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// ParseTagList splits a comma-separated tag list as used by ?tags=a,b.
func ParseTagList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return normalizeQueryTags(strings.Split(s, ","))
}

func normalizeQueryTags(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, t := range raw {
		tag := strings.ToLower(strings.TrimSpace(t))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func sortNewestFirst(records []*catalog.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
}
