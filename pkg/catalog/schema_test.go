package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, "classify:prod:content:123", ContentKey("prod", "123"))
	assert.Equal(t, "classify:prod:content:*", ContentKeyPattern("prod"))
	assert.Equal(t, "classify:prod:hash:abc:contents", HashContentsKey("prod", "abc"))
	assert.Equal(t, "classify:prod:tag:news:contents", TagContentsKey("prod", "news"))
	assert.Equal(t, "classify:prod:tags", TagsKey("prod"))
}

func TestIDFromContentKey(t *testing.T) {
	id, ok := IDFromContentKey("prod", "classify:prod:content:abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = IDFromContentKey("prod", "classify:other:content:abc")
	assert.False(t, ok)
}
