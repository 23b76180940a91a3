package query

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dyluth/classify/pkg/catalog"
)

// OutputFormat specifies how record lists are written.
type OutputFormat string

const (
	// OutputFormatDefault uses a table with truncated bodies
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs complete records as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"

	// OutputFormatJSON outputs a single JSON array
	OutputFormatJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputFormatDefault:
		return OutputFormatDefault, nil
	case OutputFormatJSONL, OutputFormatJSON:
		return OutputFormat(s), nil
	}
	return "", fmt.Errorf("unknown output format: %s (use default, json or jsonl)", s)
}

// WriteRecords writes records in the requested format. title heads the table
// output and is ignored by the JSON formats.
func WriteRecords(w io.Writer, records []*catalog.Record, format OutputFormat, title string) error {
	switch format {
	case OutputFormatDefault:
		FormatTable(w, records, title)
		return nil
	case OutputFormatJSONL:
		return FormatJSONL(w, records)
	case OutputFormatJSON:
		return FormatJSON(w, records)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// FormatTable writes records as a table with columns ID, TAGS, AGE and BODY.
// Returns the number of records formatted.
func FormatTable(w io.Writer, records []*catalog.Record, title string) int {
	if len(records) == 0 {
		fmt.Fprintln(w, "No content found")
		return 0
	}

	if title != "" {
		fmt.Fprintf(w, "%s:\n\n", title)
	}

	fmt.Fprintf(w, "%-10s %-32s %-8s %s\n", "ID", "TAGS", "AGE", "BODY")
	fmt.Fprintf(w, "%-10s %-32s %-8s %s\n",
		"----------", "--------------------------------", "--------", "----------------------------------------")

	for _, r := range records {
		fmt.Fprintf(w, "%-10s %-32s %-8s %s\n",
			formatID(r.ID),
			formatTags(r.Tags),
			formatAge(r.CreatedAt),
			formatBody(r),
		)
	}

	countMsg := "record"
	if len(records) != 1 {
		countMsg = "records"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(records), countMsg)

	return len(records)
}

// FormatJSONL writes one compact JSON object per line.
func FormatJSONL(w io.Writer, records []*catalog.Record) error {
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatJSON writes records as an indented JSON array. An empty list is "[]".
func FormatJSON(w io.Writer, records []*catalog.Record) error {
	if records == nil {
		records = []*catalog.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records to JSON: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	return nil
}

// FormatSingleJSON writes one record as pretty-printed JSON.
func FormatSingleJSON(w io.Writer, rec *catalog.Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record to JSON: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)

	return nil
}

// FormatTagList writes one tag per line.
func FormatTagList(w io.Writer, tags []string) {
	if len(tags) == 0 {
		fmt.Fprintln(w, "No tags found")
		return
	}
	for _, tag := range tags {
		fmt.Fprintln(w, tag)
	}
}

// formatID truncates the record ID to its first 8 characters.
func formatID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatTags joins tags with commas, truncated to the column width.
func formatTags(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	return truncateRunes(strings.Join(tags, ","), 32)
}

// formatBody shows the source URL for link records, otherwise the first
// non-empty line of the body, max 40 characters.
func formatBody(rec *catalog.Record) string {
	if rec.SourceURL != "" {
		return truncateRunes(rec.SourceURL, 40)
	}

	for _, line := range strings.Split(rec.Content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return truncateRunes(trimmed, 40)
		}
	}
	return "-"
}

// formatAge shows relative time like "2m ago", "1h ago".
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}
