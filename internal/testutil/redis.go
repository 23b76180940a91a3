package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/classify/pkg/catalog/redisstore"
)

// NewRedisClient starts a miniredis server and returns a redisstore client
// connected to it. Both are closed when the test finishes.
func NewRedisClient(t *testing.T) (*redisstore.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	client, err := redisstore.NewClient(&redis.Options{Addr: mr.Addr()}, "test")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}
