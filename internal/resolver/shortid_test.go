package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLister struct {
	ids   []string
	err   error
	calls int
}

func (l *staticLister) IDs(ctx context.Context) ([]string, error) {
	l.calls++
	return l.ids, l.err
}

func TestResolveContentID(t *testing.T) {
	lister := &staticLister{ids: []string{
		"abc12345-0000-4000-8000-000000000001",
		"abc12399-0000-4000-8000-000000000002",
		"def67890-0000-4000-8000-000000000003",
	}}
	ctx := context.Background()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr func(error) bool
	}{
		{"unique prefix", "def678", "def67890-0000-4000-8000-000000000003", nil},
		{"case insensitive", "DEF678", "def67890-0000-4000-8000-000000000003", nil},
		{"longer prefix disambiguates", "abc1234", "abc12345-0000-4000-8000-000000000001", nil},
		{"ambiguous", "abc123", "", IsAmbiguousError},
		{"no match", "ffffff", "", IsNotFoundError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveContentID(ctx, lister, tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveFullUUIDSkipsListing(t *testing.T) {
	lister := &staticLister{}
	id := "11111111-2222-4333-8444-555555555555"

	got, err := ResolveContentID(context.Background(), lister, id)
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.Equal(t, 0, lister.calls)
}

func TestResolveTooShort(t *testing.T) {
	_, err := ResolveContentID(context.Background(), &staticLister{}, "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 6 characters")
}

func TestResolveListError(t *testing.T) {
	_, err := ResolveContentID(context.Background(), &staticLister{err: errors.New("redis down")}, "abcdef")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
}

func TestFormatAmbiguousError(t *testing.T) {
	var matches []string
	for i := 0; i < 12; i++ {
		matches = append(matches, fmt.Sprintf("abcdef%02d-0000-4000-8000-000000000000", i))
	}

	msg := FormatAmbiguousError(&AmbiguousError{ShortID: "abcdef", Matches: matches})
	assert.Contains(t, msg, "matches 12 records")
	assert.Contains(t, msg, matches[9])
	assert.NotContains(t, msg, matches[10])
	assert.Contains(t, msg, "...and 2 more")
}
