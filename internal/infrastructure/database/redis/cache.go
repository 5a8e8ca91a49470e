// Package redis implements the descriptor cache.  Descriptor computation is
// pure, so canonical SMILES is a perfect cache key: a re-run over an
// overlapping corpus skips the toolkit entirely for molecules it has already
// seen.
package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/chemforge/molpipe/internal/config"
	"github.com/chemforge/molpipe/internal/infrastructure/logging"
	"github.com/chemforge/molpipe/pkg/errors"
)

// ErrCacheMiss marks an absent key; callers fall through to computation.
var ErrCacheMiss = errors.New(errors.ErrCodeNotFound, "cache miss")

// DescriptorCache stores descriptor maps keyed by canonical SMILES.
type DescriptorCache interface {
	Get(ctx context.Context, canonicalSMILES string) (map[string]float64, error)
	Put(ctx context.Context, canonicalSMILES string, descriptors map[string]float64) error
	Ping(ctx context.Context) error
	Close() error
}

type descriptorCache struct {
	client     *goredis.Client
	logger     logging.Logger
	keyPrefix  string
	defaultTTL time.Duration
}

// NewDescriptorCache dials redis and verifies the connection.
func NewDescriptorCache(ctx context.Context, cfg config.RedisConfig, logger logging.Logger) (DescriptorCache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "connect to descriptor cache")
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "molpipe:desc:"
	}
	ttl := cfg.DefaultTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	logger.Info("descriptor cache connected",
		logging.String("addr", cfg.Addr),
		logging.Duration("ttl", ttl))

	return &descriptorCache{
		client:     client,
		logger:     logger.Named("cache"),
		keyPrefix:  prefix,
		defaultTTL: ttl,
	}, nil
}

// NewDescriptorCacheWithClient wraps an existing client, used by tests.
func NewDescriptorCacheWithClient(client *goredis.Client, keyPrefix string, ttl time.Duration, logger logging.Logger) DescriptorCache {
	return &descriptorCache{
		client:     client,
		logger:     logger,
		keyPrefix:  keyPrefix,
		defaultTTL: ttl,
	}
}

func (c *descriptorCache) key(canonicalSMILES string) string {
	return c.keyPrefix + canonicalSMILES
}

func (c *descriptorCache) Get(ctx context.Context, canonicalSMILES string) (map[string]float64, error) {
	data, err := c.client.Get(ctx, c.key(canonicalSMILES)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "cache get")
	}
	out := make(map[string]float64)
	if err := json.Unmarshal(data, &out); err != nil {
		// A corrupt entry behaves like a miss; the writer will replace it.
		c.logger.Warn("dropping corrupt cache entry",
			logging.String("smiles", canonicalSMILES), logging.Err(err))
		return nil, ErrCacheMiss
	}
	return out, nil
}

func (c *descriptorCache) Put(ctx context.Context, canonicalSMILES string, descriptors map[string]float64) error {
	data, err := json.Marshal(descriptors)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "encode descriptors")
	}
	if err := c.client.Set(ctx, c.key(canonicalSMILES), data, c.defaultTTL).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache put")
	}
	return nil
}

func (c *descriptorCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache ping")
	}
	return nil
}

func (c *descriptorCache) Close() error {
	return c.client.Close()
}
