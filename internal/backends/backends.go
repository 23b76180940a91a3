// Package backends opens the content store and tag index selected by
// configuration.
package backends

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dyluth/classify/internal/config"
	"github.com/dyluth/classify/internal/logging"
	"github.com/dyluth/classify/pkg/catalog"
	"github.com/dyluth/classify/pkg/catalog/fsstore"
	"github.com/dyluth/classify/pkg/catalog/redisstore"
	"github.com/dyluth/classify/pkg/catalog/s3store"
	"github.com/dyluth/classify/pkg/catalog/sqlitestore"
)

// Pinger is implemented by every backend that can report its own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check is a named health probe.
type Check struct {
	Name   string
	Pinger Pinger
}

// Backends holds the opened stores. When both roles use Redis they share one
// client, which is closed once.
type Backends struct {
	Content catalog.ContentStore
	Tags    catalog.TagIndex

	checks  []Check
	closers []func() error
	once    sync.Once
	err     error
}

// Open connects to the backends named in cfg. The tag index is opened first
// so a Redis content store can reuse its client. Reachability is verified
// with a ping before returning.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backends, error) {
	logger = logging.Component(logger, "backends")
	b := &Backends{}

	if cfg.TagStorage.Type != config.TagStorageRedis {
		return nil, fmt.Errorf("unsupported tag storage type: %s", cfg.TagStorage.Type)
	}

	rc, err := redisstore.NewClientFromURL(cfg.TagStorage.RedisURL, cfg.TagStorage.RedisPassword, cfg.TagStorage.Namespace)
	if err != nil {
		return nil, err
	}
	b.Tags = rc
	b.closers = append(b.closers, rc.Close)
	b.checks = append(b.checks, Check{Name: "redis", Pinger: rc})

	if err := rc.Ping(ctx); err != nil {
		b.Close()
		return nil, fmt.Errorf("redis not reachable at %s: %w", cfg.TagStorage.RedisURL, err)
	}

	if err := b.openContent(ctx, cfg); err != nil {
		b.Close()
		return nil, err
	}

	logger.Info("backends opened",
		"content_storage", cfg.Storage.Type,
		"tag_storage", cfg.TagStorage.Type,
		"namespace", cfg.TagStorage.Namespace)

	return b, nil
}

func (b *Backends) openContent(ctx context.Context, cfg *config.Config) error {
	switch cfg.Storage.Type {
	case config.StorageRedis:
		// Shares the tag index connection; already registered for close and health
		b.Content = b.Tags.(*redisstore.Client)
		return nil

	case config.StorageFilesystem:
		store, err := fsstore.New(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to open content directory: %w", err)
		}
		b.add("filesystem", store)

	case config.StorageSQLite:
		store, err := sqlitestore.New(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to open sqlite database: %w", err)
		}
		b.add("sqlite", store)

	case config.StorageS3:
		s3 := cfg.Storage.S3
		store, err := s3store.New(ctx, s3store.Options{
			Bucket:    s3.Bucket,
			Prefix:    s3.Prefix,
			Region:    s3.Region,
			Profile:   s3.Profile,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			Endpoint:  s3.Endpoint,
		})
		if err != nil {
			return fmt.Errorf("failed to open s3 bucket %s: %w", s3.Bucket, err)
		}
		b.add("s3", store)

	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
	return nil
}

type pingingStore interface {
	catalog.ContentStore
	Pinger
}

func (b *Backends) add(name string, store pingingStore) {
	b.Content = store
	b.closers = append(b.closers, store.Close)
	b.checks = append(b.checks, Check{Name: name, Pinger: store})
}

// Checks returns the health probes for every opened backend, tag index first.
func (b *Backends) Checks() []Check {
	return append([]Check(nil), b.checks...)
}

// Close closes every backend once. Later calls return the first result.
func (b *Backends) Close() error {
	b.once.Do(func() {
		var errs []error
		for i := len(b.closers) - 1; i >= 0; i-- {
			if err := b.closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		b.err = errors.Join(errs...)
	})
	return b.err
}
