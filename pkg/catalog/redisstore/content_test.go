package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/classify/pkg/catalog"
)

func TestContentRoundTrip(t *testing.T) {
	client, raw, _ := setupTestClient(t)
	ctx := context.Background()

	rec := newRecord(t, "Some article about cooking and travel", "cooking", "travel")
	rec.SourceURL = "https://example.com/post"
	require.NoError(t, client.Put(ctx, rec))

	t.Run("get returns equal record", func(t *testing.T) {
		got, err := client.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})

	t.Run("body is one field", func(t *testing.T) {
		body, found, err := client.GetBody(ctx, rec.ID)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, rec.Content, body)
	})

	t.Run("stored as hash under namespaced key", func(t *testing.T) {
		typ, err := raw.Type(ctx, "classify:test:content:"+rec.ID).Result()
		require.NoError(t, err)
		assert.Equal(t, "hash", typ)
	})

	t.Run("hash set holds record", func(t *testing.T) {
		ids, err := raw.SMembers(ctx, "classify:test:hash:"+rec.ContentHash+":contents").Result()
		require.NoError(t, err)
		assert.Equal(t, []string{rec.ID}, ids)
	})
}

func TestContentMissing(t *testing.T) {
	client, _, _ := setupTestClient(t)
	ctx := context.Background()

	got, err := client.Get(ctx, "00000000-0000-0000-0000-000000000000")
	assert.NoError(t, err)
	assert.Nil(t, got)

	body, found, err := client.GetBody(ctx, "00000000-0000-0000-0000-000000000000")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, body)
}

func TestPutOverwrites(t *testing.T) {
	client, _, _ := setupTestClient(t)
	ctx := context.Background()

	rec := newRecord(t, "first", "a")
	require.NoError(t, client.Put(ctx, rec))

	rec.SourceURL = ""
	rec.Tags = []string{"b"}
	require.NoError(t, client.Put(ctx, rec))

	got, err := client.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got.Tags)
}

func TestPutRejectsInvalidRecord(t *testing.T) {
	client, _, _ := setupTestClient(t)

	err := client.Put(context.Background(), &catalog.Record{ID: "bad"})
	assert.ErrorContains(t, err, "invalid record")
}

func TestDeleteIsIdempotent(t *testing.T) {
	client, raw, _ := setupTestClient(t)
	ctx := context.Background()

	rec := newRecord(t, "to delete", "x")
	require.NoError(t, client.Put(ctx, rec))

	require.NoError(t, client.Delete(ctx, rec.ID))
	require.NoError(t, client.Delete(ctx, rec.ID))

	got, err := client.Get(ctx, rec.ID)
	assert.NoError(t, err)
	assert.Nil(t, got)

	exists, err := raw.Exists(ctx, "classify:test:hash:"+rec.ContentHash+":contents").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestFindByHashWithSharedHash(t *testing.T) {
	client, _, _ := setupTestClient(t)
	ctx := context.Background()

	older := newRecord(t, "same body")
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	older.UpdatedAt = older.CreatedAt
	newer := newRecord(t, "same body")
	require.NoError(t, client.Put(ctx, older))
	require.NoError(t, client.Put(ctx, newer))

	t.Run("newest wins", func(t *testing.T) {
		found, err := client.FindByHash(ctx, newer.ContentHash)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, newer.ID, found.ID)
	})

	t.Run("deleting newest keeps older findable", func(t *testing.T) {
		require.NoError(t, client.Delete(ctx, newer.ID))

		found, err := client.FindByHash(ctx, older.ContentHash)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, older.ID, found.ID)
	})

	t.Run("deleting last leaves nothing", func(t *testing.T) {
		require.NoError(t, client.Delete(ctx, older.ID))

		found, err := client.FindByHash(ctx, older.ContentHash)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestList(t *testing.T) {
	client, raw, _ := setupTestClient(t)
	ctx := context.Background()

	ids, err := client.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	a := newRecord(t, "a")
	b := newRecord(t, "b")
	require.NoError(t, client.Put(ctx, a))
	require.NoError(t, client.Put(ctx, b))

	// A record in another namespace must not leak in
	require.NoError(t, raw.HSet(ctx, "classify:other:content:zzz", "id", "zzz").Err())

	ids, err = client.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)
}

func TestFindByHash(t *testing.T) {
	client, raw, _ := setupTestClient(t)
	ctx := context.Background()

	rec := newRecord(t, "unique body")
	require.NoError(t, client.Put(ctx, rec))

	t.Run("hit", func(t *testing.T) {
		got, err := client.FindByHash(ctx, rec.ContentHash)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, rec.ID, got.ID)
	})

	t.Run("miss", func(t *testing.T) {
		got, err := client.FindByHash(ctx, catalog.HashContent("nothing"))
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("stale index entry reads as absent", func(t *testing.T) {
		require.NoError(t, raw.SAdd(ctx, "classify:test:hash:deadbeef:contents", "00000000-0000-0000-0000-000000000000").Err())
		got, err := client.FindByHash(ctx, "deadbeef")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestCorruptRecord(t *testing.T) {
	client, raw, _ := setupTestClient(t)
	ctx := context.Background()

	id := "11111111-1111-1111-1111-111111111111"
	require.NoError(t, raw.HSet(ctx, "classify:test:content:"+id, "id", id, "tags", "not-json").Err())

	_, err := client.Get(ctx, id)
	require.Error(t, err)
	assert.True(t, catalog.IsCorrupt(err))
	assert.False(t, catalog.IsBackend(err))
}

func TestContentBackendFailure(t *testing.T) {
	client, _, mr := setupTestClient(t)
	ctx := context.Background()
	rec := newRecord(t, "body", "a")
	mr.Close()

	assert.True(t, catalog.IsBackend(client.Put(ctx, rec)))

	_, err := client.Get(ctx, rec.ID)
	assert.True(t, catalog.IsBackend(err))

	_, _, err = client.GetBody(ctx, rec.ID)
	assert.True(t, catalog.IsBackend(err))

	assert.True(t, catalog.IsBackend(client.Delete(ctx, rec.ID)))

	_, err = client.List(ctx)
	assert.True(t, catalog.IsBackend(err))
}
