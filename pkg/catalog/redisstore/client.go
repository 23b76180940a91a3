package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dyluth/classify/pkg/catalog"
)

// Client is a namespace-scoped Redis backend. It implements both
// catalog.ContentStore and catalog.TagIndex so a single connection pool can
// serve the two roles. The client is safe for concurrent use.
type Client struct {
	rdb       *redis.Client
	namespace string
}

var (
	_ catalog.ContentStore = (*Client)(nil)
	_ catalog.TagIndex     = (*Client)(nil)
)

// NewClient creates a Redis backend whose keys are all prefixed with namespace.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - namespace: key prefix segment (must not be empty)
func NewClient(redisOpts *redis.Options, namespace string) (*Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}

	return &Client{
		rdb:       redis.NewClient(redisOpts),
		namespace: namespace,
	}, nil
}

// NewClientFromURL parses a redis:// URL and creates a client for it.
// A non-empty password overrides any password embedded in the URL.
func NewClientFromURL(url, password, namespace string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	return NewClient(opts, namespace)
}

// Namespace returns the key prefix segment this client writes under.
func (c *Client) Namespace() string {
	return c.namespace
}

// Close closes the Redis connection. After calling Close(), the client should not be used.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Used by the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return catalog.BackendError("ping", "", err)
	}
	return nil
}
