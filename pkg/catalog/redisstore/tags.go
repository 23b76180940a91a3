package redisstore

import (
	"context"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/dyluth/classify/pkg/catalog"
)

// removeTagScript removes one ID from a tag's membership set and, if the set is
// now empty, drops the set and removes the tag from the global tag set. Running
// it as a script makes the emptiness check atomic with the removal, so a
// concurrent add cannot be lost between SCARD and SREM.
//
// KEYS[1] = tag contents key, KEYS[2] = global tags key
// ARGV[1] = record ID, ARGV[2] = tag
// Returns 1 if the tag was orphaned.
var removeTagScript = redis.NewScript(`
redis.call('SREM', KEYS[1], ARGV[1])
if redis.call('SCARD', KEYS[1]) == 0 then
  redis.call('DEL', KEYS[1])
  return redis.call('SREM', KEYS[2], ARGV[2])
end
return 0
`)

// AddContentToTags adds id to every tag's membership set and every tag to the
// global set in a single MULTI/EXEC. SADD makes repeated calls idempotent.
func (c *Client) AddContentToTags(ctx context.Context, id string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	members := make([]interface{}, len(tags))
	pipe := c.rdb.TxPipeline()
	for i, tag := range tags {
		pipe.SAdd(ctx, catalog.TagContentsKey(c.namespace, tag), id)
		members[i] = tag
	}
	pipe.SAdd(ctx, catalog.TagsKey(c.namespace), members...)

	if _, err := pipe.Exec(ctx); err != nil {
		return catalog.BackendError("add_tags", id, err)
	}
	return nil
}

// RemoveContentFromTags removes id from each tag and returns the tags left
// with no members. It stops at the first failing tag; tags processed before
// the failure stay removed.
func (c *Client) RemoveContentFromTags(ctx context.Context, id string, tags []string) ([]string, error) {
	orphaned := []string{}
	tagsKey := catalog.TagsKey(c.namespace)

	for _, tag := range tags {
		keys := []string{catalog.TagContentsKey(c.namespace, tag), tagsKey}
		gone, err := removeTagScript.Run(ctx, c.rdb, keys, id, tag).Int()
		if err != nil {
			return orphaned, catalog.BackendError("remove_tags", tag, err)
		}
		if gone == 1 {
			orphaned = append(orphaned, tag)
		}
	}

	return orphaned, nil
}

// ListAllTags returns every tag in the global set, sorted.
func (c *Client) ListAllTags(ctx context.Context) ([]string, error) {
	tags, err := c.rdb.SMembers(ctx, catalog.TagsKey(c.namespace)).Result()
	if err != nil {
		return nil, catalog.BackendError("list_tags", "", err)
	}
	sort.Strings(tags)
	return tags, nil
}

// ListContentIDsForTags returns the union of the membership sets of tags, sorted.
// An empty tag list yields an empty result.
func (c *Client) ListContentIDsForTags(ctx context.Context, tags []string) ([]string, error) {
	if len(tags) == 0 {
		return []string{}, nil
	}

	keys := make([]string, len(tags))
	for i, tag := range tags {
		keys[i] = catalog.TagContentsKey(c.namespace, tag)
	}

	ids, err := c.rdb.SUnion(ctx, keys...).Result()
	if err != nil {
		return nil, catalog.BackendError("list_ids_for_tags", "", err)
	}
	sort.Strings(ids)
	return ids, nil
}
