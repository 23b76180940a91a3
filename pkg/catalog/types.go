package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxTags is the maximum number of tags a record may carry.
const MaxTags = 5

// Record is one classified piece of content.
// Records are created once by the orchestrator and never mutated afterwards.
type Record struct {
	ID          string    `json:"id"`                   // UUID - unique identifier for this record
	Content     string    `json:"content"`              // Body text (input text, or text fetched from SourceURL)
	SourceURL   string    `json:"source_url,omitempty"` // Original link when the input was a URL
	ContentHash string    `json:"content_hash"`         // Hex SHA-256 of the original input string
	Tags        []string  `json:"tags"`                 // 0-5 distinct tags assigned by the classifier
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewRecord builds a record for body with a fresh ID and equal created/updated
// timestamps. Timestamps are UTC and truncated to milliseconds so that every
// backend round-trips them exactly.
func NewRecord(body string, tags []string) (*Record, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	if tags == nil {
		tags = []string{}
	}

	rec := &Record{
		ID:          uuid.New().String(),
		Content:     body,
		ContentHash: HashContent(body),
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// HashContent returns the hex SHA-256 digest used for duplicate detection.
func HashContent(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Validate checks if the Record has valid field values.
func (r *Record) Validate() error {
	if !isValidUUID(r.ID) {
		return fmt.Errorf("invalid record ID: not a valid UUID")
	}

	if len(r.Tags) > MaxTags {
		return fmt.Errorf("too many tags: %d (max %d)", len(r.Tags), MaxTags)
	}

	seen := make(map[string]struct{}, len(r.Tags))
	for i, tag := range r.Tags {
		if tag == "" {
			return fmt.Errorf("empty tag at index %d", i)
		}
		if _, dup := seen[tag]; dup {
			return fmt.Errorf("duplicate tag %q", tag)
		}
		seen[tag] = struct{}{}
	}

	if r.UpdatedAt.Before(r.CreatedAt) {
		return fmt.Errorf("updated_at precedes created_at")
	}

	return nil
}

// HasTag reports whether the record carries tag.
func (r *Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsValidID reports whether id has the shape of a record ID.
func IsValidID(id string) bool {
	return isValidUUID(id)
}

// isValidUUID checks if a string is a valid UUID format.
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
