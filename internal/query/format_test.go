package query

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/classify/pkg/catalog"
)

func sampleRecord(t *testing.T) *catalog.Record {
	t.Helper()
	rec, err := catalog.NewRecord("First line\nSecond line", []string{"news", "tech"})
	require.NoError(t, err)
	return rec
}

func TestFormatBody(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		sourceURL string
		expected  string
	}{
		{"empty body", "", "", "-"},
		{"short single line", "hello", "", "hello"},
		{"exactly 40 chars", strings.Repeat("a", 40), "", strings.Repeat("a", 40)},
		{"41 chars - should truncate", strings.Repeat("a", 41), "", strings.Repeat("a", 37) + "..."},
		{"multi-line first line only", "First\nSecond", "", "First"},
		{"leading blank lines", "  \n  hello world  \n", "", "hello world"},
		{"link shows url", "long article text", "https://example.com/a", "https://example.com/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &catalog.Record{Content: tt.content, SourceURL: tt.sourceURL}
			assert.Equal(t, tt.expected, formatBody(rec))
		})
	}
}

func TestFormatTags(t *testing.T) {
	assert.Equal(t, "-", formatTags(nil))
	assert.Equal(t, "a,b", formatTags([]string{"a", "b"}))
	assert.Len(t, []rune(formatTags([]string{strings.Repeat("x", 40)})), 32)
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "-", formatAge(time.Time{}))
	assert.Equal(t, "5m ago", formatAge(time.Now().Add(-5*time.Minute-time.Second)))
	assert.Equal(t, "3h ago", formatAge(time.Now().Add(-3*time.Hour-time.Second)))
	assert.Equal(t, "2d ago", formatAge(time.Now().Add(-49*time.Hour)))
}

func TestFormatTable(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		n := FormatTable(&buf, nil, "")
		assert.Zero(t, n)
		assert.Contains(t, buf.String(), "No content found")
	})

	t.Run("rows", func(t *testing.T) {
		rec := sampleRecord(t)
		var buf bytes.Buffer
		n := FormatTable(&buf, []*catalog.Record{rec}, "Content tagged news")
		assert.Equal(t, 1, n)

		out := buf.String()
		assert.Contains(t, out, "Content tagged news:")
		assert.Contains(t, out, rec.ID[:8])
		assert.Contains(t, out, "news,tech")
		assert.Contains(t, out, "First line")
		assert.NotContains(t, out, "Second line")
		assert.Contains(t, out, "1 record found")
	})
}

func TestFormatJSONL(t *testing.T) {
	a, b := sampleRecord(t), sampleRecord(t)
	var buf bytes.Buffer
	require.NoError(t, FormatJSONL(&buf, []*catalog.Record{a, b}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var decoded catalog.Record
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &decoded))
	assert.Equal(t, b.ID, decoded.ID)
}

func TestFormatJSONEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestFormatSingleJSON(t *testing.T) {
	rec := sampleRecord(t)
	var buf bytes.Buffer
	require.NoError(t, FormatSingleJSON(&buf, rec))
	assert.Contains(t, buf.String(), `"id": "`+rec.ID+`"`)
	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))
}

func TestWriteRecordsAndParseOutputFormat(t *testing.T) {
	f, err := ParseOutputFormat("")
	require.NoError(t, err)
	assert.Equal(t, OutputFormatDefault, f)

	_, err = ParseOutputFormat("xml")
	assert.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, []*catalog.Record{sampleRecord(t)}, OutputFormatJSON, ""))
	var decoded []catalog.Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded, 1)

	assert.Error(t, WriteRecords(&buf, nil, "xml", ""))
}

func TestFormatTagList(t *testing.T) {
	var buf bytes.Buffer
	FormatTagList(&buf, nil)
	assert.Equal(t, "No tags found\n", buf.String())

	buf.Reset()
	FormatTagList(&buf, []string{"a", "b"})
	assert.Equal(t, "a\nb\n", buf.String())
}
