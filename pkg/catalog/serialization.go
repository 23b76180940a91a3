package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Serialization helpers
//
// File, object and SQL backends store a record as one JSON document.
// The Redis backend stores it as a hash so the body can be read with a single
// HGET; the tags array is JSON-encoded into one field and timestamps are stored
// as Unix milliseconds.

// EncodeRecord returns the JSON document for rec.
func EncodeRecord(rec *Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	return data, nil
}

// DecodeRecord parses a JSON document produced by EncodeRecord and validates it.
func DecodeRecord(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// RecordToHash converts a Record to the Redis hash format.
func RecordToHash(rec *Record) (map[string]interface{}, error) {
	tagsJSON, err := json.Marshal(rec.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}

	hash := map[string]interface{}{
		"id":            rec.ID,
		"content":       rec.Content,
		"source_url":    rec.SourceURL,
		"content_hash":  rec.ContentHash,
		"tags":          string(tagsJSON),
		"created_at_ms": rec.CreatedAt.UnixMilli(),
		"updated_at_ms": rec.UpdatedAt.UnixMilli(),
	}

	return hash, nil
}

// HashToRecord converts a Redis hash back to a Record.
// Missing or malformed fields are reported as errors rather than defaulted.
func HashToRecord(hash map[string]string) (*Record, error) {
	var tags []string
	if err := json.Unmarshal([]byte(hash["tags"]), &tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}

	createdAt, err := parseMillis(hash["created_at_ms"])
	if err != nil {
		return nil, fmt.Errorf("invalid created_at_ms field: %w", err)
	}
	updatedAt, err := parseMillis(hash["updated_at_ms"])
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at_ms field: %w", err)
	}

	rec := &Record{
		ID:          hash["id"],
		Content:     hash["content"],
		SourceURL:   hash["source_url"],
		ContentHash: hash["content_hash"],
		Tags:        tags,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	return rec, nil
}

func parseMillis(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
