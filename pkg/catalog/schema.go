package catalog

import (
	"fmt"
	"strings"
)

// Redis key pattern helpers
//
// All Redis keys are namespaced so that several deployments can safely share
// a single Redis server.
//
// Key pattern: classify:{namespace}:{entity}[:{id}]

// DefaultNamespace is used when no key prefix is configured.
const DefaultNamespace = "default"

// ContentKey returns the Redis key for a content record hash.
// Pattern: classify:{namespace}:content:{id}
func ContentKey(namespace, id string) string {
	return fmt.Sprintf("classify:%s:content:%s", namespace, id)
}

// ContentKeyPattern returns the SCAN pattern matching every content key.
// Pattern: classify:{namespace}:content:*
func ContentKeyPattern(namespace string) string {
	return fmt.Sprintf("classify:%s:content:*", namespace)
}

// IDFromContentKey extracts the record ID from a content key.
// Returns false if key does not belong to namespace.
func IDFromContentKey(namespace, key string) (string, bool) {
	prefix := fmt.Sprintf("classify:%s:content:", namespace)
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	return key[len(prefix):], true
}

// HashContentsKey returns the Redis key for the set of record IDs stored with
// a given content hash.
// Pattern: classify:{namespace}:hash:{hash}:contents
func HashContentsKey(namespace, hash string) string {
	return fmt.Sprintf("classify:%s:hash:%s:contents", namespace, hash)
}

// TagContentsKey returns the Redis key for a tag's membership set.
// Pattern: classify:{namespace}:tag:{tag}:contents
func TagContentsKey(namespace, tag string) string {
	return fmt.Sprintf("classify:%s:tag:%s:contents", namespace, tag)
}

// TagsKey returns the Redis key for the global tag set.
// Pattern: classify:{namespace}:tags
func TagsKey(namespace string) string {
	return fmt.Sprintf("classify:%s:tags", namespace)
}
