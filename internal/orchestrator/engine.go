// Package orchestrator turns raw input into a classified, persisted and
// indexed content record, and removes records together with their index
// entries.
//
// There is no transaction spanning the content store and the tag index.
// Failures between the two writes are reported as KindPartialWrite and can be
// repaired with Reindex.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dyluth/classify/internal/logging"
	"github.com/dyluth/classify/pkg/catalog"
)

// DefaultMaxPromptLength is used when Options.MaxPromptLength is zero.
const DefaultMaxPromptLength = 200000

// Fetcher retrieves the text behind a link.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Classifier assigns tags to text. Implementations may return more than
// catalog.MaxTags tags or messy tags; the engine normalises them.
type Classifier interface {
	Classify(ctx context.Context, text string) ([]string, error)
}

// Options tunes an Engine.
type Options struct {
	// MaxPromptLength is the maximum number of characters handed to the classifier.
	MaxPromptLength int

	// DetectDuplicates makes Classify return the existing record when the same
	// input was classified before.
	DetectDuplicates bool

	Logger *slog.Logger
}

// Engine runs classification and deletion against a content store and a tag index.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	content    catalog.ContentStore
	tags       catalog.TagIndex
	fetcher    Fetcher
	classifier Classifier

	maxPromptLength  int
	detectDuplicates bool
	logger           *slog.Logger
}

// NewEngine creates an engine. fetcher may be nil, in which case link inputs
// fail with KindFetch.
func NewEngine(content catalog.ContentStore, tags catalog.TagIndex, fetcher Fetcher, classifier Classifier, opts Options) *Engine {
	maxLen := opts.MaxPromptLength
	if maxLen <= 0 {
		maxLen = DefaultMaxPromptLength
	}

	return &Engine{
		content:          content,
		tags:             tags,
		fetcher:          fetcher,
		classifier:       classifier,
		maxPromptLength:  maxLen,
		detectDuplicates: opts.DetectDuplicates,
		logger:           logging.Component(opts.Logger, "orchestrator"),
	}
}

// Outcome is the result of a classification.
type Outcome struct {
	Record *catalog.Record

	// Duplicate is true when Record already existed and nothing was written.
	Duplicate bool
}

// Classify resolves input to body text, classifies it and persists the record.
//
// On a KindPartialWrite error the returned Outcome is non-nil: the record was
// stored and can be read by ID, but is missing from the tag index.
func (e *Engine) Classify(ctx context.Context, input string) (*Outcome, error) {
	startTime := time.Now()

	if strings.TrimSpace(input) == "" {
		return nil, newError(KindInvalidInput, "classify", "", errors.New("content cannot be empty"))
	}

	inputHash := catalog.HashContent(input)
	if e.detectDuplicates {
		existing, err := e.content.FindByHash(ctx, inputHash)
		if err != nil {
			return nil, newError(KindStore, "classify", "", fmt.Errorf("duplicate check failed: %w", err))
		}
		if existing != nil {
			e.logger.Info("duplicate content", "content_id", existing.ID)
			return &Outcome{Record: existing, Duplicate: true}, nil
		}
	}

	// ResolveInput
	body := input
	sourceURL := ""
	if IsURL(input) {
		sourceURL = strings.TrimSpace(input)
		text, err := e.fetch(ctx, sourceURL)
		if err != nil {
			return nil, err
		}
		body = text
	}

	// Truncate
	prompt := Truncate(body, e.maxPromptLength)
	if len(prompt) < len(body) {
		e.logger.Debug("prompt truncated",
			"original_chars", utf8.RuneCountInString(body),
			"max_chars", e.maxPromptLength)
	}

	// Classify
	raw, err := e.classifier.Classify(ctx, prompt)
	if err != nil {
		return nil, newError(KindClassifier, "classify", "", err)
	}
	tags := NormalizeTags(raw)

	// Persist
	rec, err := catalog.NewRecord(body, tags)
	if err != nil {
		return nil, newError(KindClassifier, "classify", "", fmt.Errorf("unusable classifier output: %w", err))
	}
	rec.SourceURL = sourceURL
	rec.ContentHash = inputHash

	if err := e.content.Put(ctx, rec); err != nil {
		e.logger.Error("content write failed", "content_id", rec.ID, "error", err)
		return nil, newError(KindStore, "classify", rec.ID, err)
	}

	if err := e.tags.AddContentToTags(ctx, rec.ID, rec.Tags); err != nil {
		e.logger.Warn("content stored but not indexed",
			"content_id", rec.ID,
			"tags", rec.Tags,
			"error", err)
		return &Outcome{Record: rec}, newError(KindPartialWrite, "classify", rec.ID,
			fmt.Errorf("tag index update failed: %w", err))
	}

	e.logger.Info("content classified",
		"content_id", rec.ID,
		"tags", rec.Tags,
		"source_url", rec.SourceURL,
		"duration_ms", time.Since(startTime).Milliseconds())

	return &Outcome{Record: rec}, nil
}

func (e *Engine) fetch(ctx context.Context, url string) (string, error) {
	if e.fetcher == nil {
		return "", newError(KindFetch, "classify", "", errors.New("no link fetcher configured"))
	}

	text, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", newError(KindFetch, "classify", "", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", newError(KindFetch, "classify", "", fmt.Errorf("no text extracted from %s", url))
	}
	return text, nil
}

// DeleteResult describes what a Delete call did.
type DeleteResult struct {
	ID string `json:"id"`

	// Found is false when no record existed; nothing else happened.
	Found bool `json:"found"`

	// Deleted is true once the record is gone from the content store.
	Deleted bool `json:"deleted"`

	// RemovedTags lists tags that lost their last member and left the global tag set.
	RemovedTags []string `json:"removed_tags"`

	// TagCleanupIncomplete is true when the record was deleted but its tags
	// could not all be removed from the index.
	TagCleanupIncomplete bool `json:"tag_cleanup_incomplete,omitempty"`
}

// Delete removes a record and its tag index entries.
//
// A missing record is not an error. A failed content delete is fatal and
// leaves the index untouched. A failed index cleanup returns the result
// together with a KindPartialWrite error.
func (e *Engine) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	result := &DeleteResult{ID: id, RemovedTags: []string{}}

	rec, err := e.content.Get(ctx, id)
	if err != nil && !catalog.IsCorrupt(err) {
		return nil, newError(KindStore, "delete", id, err)
	}
	if err == nil && rec == nil {
		return result, nil
	}
	result.Found = true

	if err := e.content.Delete(ctx, id); err != nil {
		return nil, newError(KindStore, "delete", id, err)
	}
	result.Deleted = true

	if rec == nil {
		// Corrupt record: its tags are unknown, so index entries stay until Reindex prunes them
		result.TagCleanupIncomplete = true
		e.logger.Warn("deleted corrupt record without tag cleanup", "content_id", id)
		return result, newError(KindPartialWrite, "delete", id,
			errors.New("record was unreadable; run reindex to prune its tags"))
	}

	orphaned, err := e.tags.RemoveContentFromTags(ctx, id, rec.Tags)
	if orphaned != nil {
		result.RemovedTags = orphaned
	}
	if err != nil {
		result.TagCleanupIncomplete = true
		e.logger.Warn("content deleted but tag cleanup incomplete",
			"content_id", id,
			"tags", rec.Tags,
			"error", err)
		return result, newError(KindPartialWrite, "delete", id,
			fmt.Errorf("tag index cleanup failed: %w", err))
	}

	e.logger.Info("content deleted", "content_id", id, "removed_tags", result.RemovedTags)
	return result, nil
}

// IsURL reports whether input is treated as a link rather than literal text.
func IsURL(input string) bool {
	s := strings.TrimSpace(input)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Truncate clips s to at most max characters (runes). It does not look for
// word or sentence boundaries. max <= 0 disables truncation.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}

	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

// NormalizeTags trims and lowercases tags, drops empty and repeated ones, and
// keeps at most catalog.MaxTags in their original order.
func NormalizeTags(raw []string) []string {
	tags := make([]string, 0, catalog.MaxTags)
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
		tags = append(tags, tag)
		if len(tags) == catalog.MaxTags {
			break
		}
	}
	return tags
}
