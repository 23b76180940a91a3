package printer

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/classify/pkg/catalog"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	noColor := color.NoColor
	color.NoColor = true

	prevOut, prevErr := stdout, stderr
	var out, errOut bytes.Buffer
	SetOutput(&out, &errOut)
	t.Cleanup(func() {
		color.NoColor = noColor
		SetOutput(prevOut, prevErr)
	})
	return &out, &errOut
}

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		_, errOut := capture(t)
		err := Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "This is a test error")
	})

	t.Run("single suggestion is printed as is", func(t *testing.T) {
		_, errOut := capture(t)
		err := Error("Test Error", "Explanation", []string{"Try this fix"})
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "\nTry this fix\n")
		assert.NotContains(t, errOut.String(), "Either:")
	})

	t.Run("multiple suggestions are numbered", func(t *testing.T) {
		_, errOut := capture(t)
		err := Error("Test Error", "Explanation", []string{"First option", "Second option"})
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "Either:\n  1. First option\n  2. Second option\n")
	})
}

func TestErrorWithContext(t *testing.T) {
	_, errOut := capture(t)
	err := ErrorWithContext("Test Error", "Explanation", map[string]string{"Redis": "redis://localhost:6379"}, nil)
	require.Equal(t, "Test Error", err.Error())
	assert.Contains(t, errOut.String(), "  Redis: redis://localhost:6379\n")
}

func TestSuccessAndWarning(t *testing.T) {
	out, errOut := capture(t)

	Success("stored %s\n", "abc")
	Success("✓ already prefixed\n")
	Warning("tag index lagging\n")

	assert.Equal(t, "✓ stored abc\n✓ already prefixed\n", out.String())
	assert.Equal(t, "⚠️  tag index lagging\n", errOut.String())
}

func TestRecord(t *testing.T) {
	out, _ := capture(t)

	rec := &catalog.Record{
		ID:          "3f2b8c1e-0000-4000-8000-000000000000",
		SourceURL:   "https://example.com/a",
		ContentHash: "deadbeef",
		Tags:        []string{"cooking", "travel"},
		CreatedAt:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	Record(rec)

	s := out.String()
	assert.Contains(t, s, rec.ID)
	assert.Contains(t, s, "Tags:    cooking, travel")
	assert.Contains(t, s, "Source:  https://example.com/a")
	assert.Contains(t, s, "Hash:    deadbeef")
}

func TestTags(t *testing.T) {
	assert.Equal(t, "(none)", Tags(nil))
	assert.Equal(t, "a, b", Tags([]string{"a", "b"}))
}
