//go:build integration

package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dyluth/classify/pkg/catalog/fsstore"
	"github.com/dyluth/classify/pkg/catalog/redisstore"
)

// setupRedis starts a Redis container for testing.
func setupRedis(t *testing.T) (string, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisURL := fmt.Sprintf("redis://%s:%s", host, port.Port())

	cleanup := func() {
		if err := redisC.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Redis container: %v", err)
		}
	}

	return redisURL, cleanup
}

// TestIntegration_RedisScenarios runs the classify and delete scenarios against
// a real Redis tag index and content store.
func TestIntegration_RedisScenarios(t *testing.T) {
	redisURL, cleanup := setupRedis(t)
	defer cleanup()

	client, err := redisstore.NewClientFromURL(redisURL, "", "it")
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	fetcher := &fakeFetcher{pages: map[string]string{
		"http://example.com/a": "Some article about cooking and travel",
	}}
	classifier := &fakeClassifier{tags: []string{"cooking", "travel"}}
	engine := NewEngine(client, client, fetcher, classifier, Options{DetectDuplicates: true})

	out, err := engine.Classify(ctx, "http://example.com/a")
	require.NoError(t, err)

	tags, err := client.ListAllTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cooking", "travel"}, tags)

	ids, err := client.ListContentIDsForTags(ctx, []string{"cooking"})
	require.NoError(t, err)
	assert.Contains(t, ids, out.Record.ID)

	dup, err := engine.Classify(ctx, "http://example.com/a")
	require.NoError(t, err)
	assert.True(t, dup.Duplicate)

	res, err := engine.Delete(ctx, out.Record.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cooking", "travel"}, res.RemovedTags)

	tags, err = client.ListAllTags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

// TestIntegration_ConcurrentClassifications checks that parallel requests on
// the same tag never lose a membership entry.
func TestIntegration_ConcurrentClassifications(t *testing.T) {
	redisURL, cleanup := setupRedis(t)
	defer cleanup()

	index, err := redisstore.NewClientFromURL(redisURL, "", "it")
	require.NoError(t, err)
	defer index.Close()

	content, err := fsstore.New(t.TempDir())
	require.NoError(t, err)

	engine := NewEngine(content, index, nil, &fakeClassifier{tags: []string{"news"}}, Options{})
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := engine.Classify(ctx, fmt.Sprintf("story %d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	ids, err := index.ListContentIDsForTags(ctx, []string{"news"})
	require.NoError(t, err)
	assert.Len(t, ids, n)
}
