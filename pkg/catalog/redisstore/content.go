package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dyluth/classify/pkg/catalog"
)

// Put writes rec as a Redis hash and adds its ID to the set for its content
// hash. Both writes go through one MULTI/EXEC so readers never see half a record.
func (c *Client) Put(ctx context.Context, rec *catalog.Record) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	hash, err := catalog.RecordToHash(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	key := catalog.ContentKey(c.namespace, rec.ID)
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, hash)
	if rec.ContentHash != "" {
		pipe.SAdd(ctx, catalog.HashContentsKey(c.namespace, rec.ContentHash), rec.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return catalog.BackendError("put", rec.ID, err)
	}

	return nil
}

// Get retrieves a record by ID. Returns (nil, nil) if it doesn't exist.
func (c *Client) Get(ctx context.Context, id string) (*catalog.Record, error) {
	hashData, err := c.rdb.HGetAll(ctx, catalog.ContentKey(c.namespace, id)).Result()
	if err != nil {
		return nil, catalog.BackendError("get", id, err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, nil
	}

	rec, err := catalog.HashToRecord(hashData)
	if err != nil {
		return nil, catalog.CorruptError("get", id, err)
	}
	return rec, nil
}

// Delete removes the record and its ID from its content-hash set. Other
// records with the same hash stay findable. Missing IDs are a no-op.
func (c *Client) Delete(ctx context.Context, id string) error {
	key := catalog.ContentKey(c.namespace, id)

	hash, err := c.rdb.HGet(ctx, key, "content_hash").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return catalog.BackendError("delete", id, err)
	}

	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, key)
	if hash != "" {
		pipe.SRem(ctx, catalog.HashContentsKey(c.namespace, hash), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return catalog.BackendError("delete", id, err)
	}
	return nil
}

// GetBody reads only the content field of the record hash.
func (c *Client) GetBody(ctx context.Context, id string) (string, bool, error) {
	body, err := c.rdb.HGet(ctx, catalog.ContentKey(c.namespace, id), "content").Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, catalog.BackendError("get_body", id, err)
	}
	return body, true, nil
}

// List scans the namespace for content keys and returns their IDs.
func (c *Client) List(ctx context.Context) ([]string, error) {
	ids := []string{}
	iter := c.rdb.Scan(ctx, 0, catalog.ContentKeyPattern(c.namespace), 100).Iterator()
	for iter.Next(ctx) {
		if id, ok := catalog.IDFromContentKey(c.namespace, iter.Val()); ok {
			ids = append(ids, id)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, catalog.BackendError("list", "", err)
	}
	return ids, nil
}

// FindByHash loads every record in the hash's set and returns the newest.
// Stale members (record gone or re-hashed) and unreadable records are skipped.
func (c *Client) FindByHash(ctx context.Context, hash string) (*catalog.Record, error) {
	ids, err := c.rdb.SMembers(ctx, catalog.HashContentsKey(c.namespace, hash)).Result()
	if err != nil {
		return nil, catalog.BackendError("find_by_hash", hash, err)
	}

	var newest *catalog.Record
	for _, id := range ids {
		rec, err := c.Get(ctx, id)
		if catalog.IsCorrupt(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if rec == nil || rec.ContentHash != hash {
			continue
		}
		if newest == nil || rec.CreatedAt.After(newest.CreatedAt) ||
			(rec.CreatedAt.Equal(newest.CreatedAt) && rec.ID > newest.ID) {
			newest = rec
		}
	}
	return newest, nil
}
