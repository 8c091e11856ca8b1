package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

const cacheKeyPrefix = "report:"

// CacheObserver receives cache hit/miss notifications
type CacheObserver interface {
	RecordCacheLookup(ctx context.Context, hit bool)
}

// CachedStore keeps whole reports in redis in front of another store.
// Redis failures are logged and the inner store answers instead.
type CachedStore struct {
	inner    ReportStore
	client   redis.UniversalClient
	ttl      time.Duration
	logger   *slog.Logger
	observer CacheObserver
}

// NewCachedStore wraps inner with a redis read-through cache
func NewCachedStore(inner ReportStore, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "report_cache")),
	}
}

// WithObserver sets the hit/miss observer
func (c *CachedStore) WithObserver(o CacheObserver) *CachedStore {
	c.observer = o
	return c
}

func cacheKey(id string) string {
	return cacheKeyPrefix + id
}

// Save writes through to the inner store and then primes the cache
func (c *CachedStore) Save(ctx context.Context, report *domain.StoredReport) (string, error) {
	id, err := c.inner.Save(ctx, report)
	if err != nil {
		return "", err
	}

	stored := report.Clone()
	stored.ID = id
	c.put(ctx, stored)
	return id, nil
}

// Get serves from redis when possible
func (c *CachedStore) Get(ctx context.Context, id string) (*domain.StoredReport, error) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	switch {
	case err == nil:
		var report domain.StoredReport
		if jerr := json.Unmarshal(data, &report); jerr == nil {
			c.observe(ctx, true)
			return &report, nil
		}
		c.logger.WarnContext(ctx, "discarding undecodable cache entry", slog.String("report_id", id))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.WarnContext(ctx, "cache read failed", slog.String("report_id", id), slog.String("error", err.Error()))
	}
	c.observe(ctx, false)

	report, err := c.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.put(ctx, report)
	return report, nil
}

// List is not cached
func (c *CachedStore) List(ctx context.Context, opts ListOptions) ([]domain.ReportSummary, error) {
	return c.inner.List(ctx, opts)
}

// Delete removes the report from the inner store before invalidating its
// cache entry. The entry is dropped even when the inner store reports ErrNotFound.
func (c *CachedStore) Delete(ctx context.Context, id string) error {
	err := c.inner.Delete(ctx, id)
	if derr := c.client.Del(ctx, cacheKey(id)).Err(); derr != nil {
		c.logger.WarnContext(ctx, "cache invalidation failed", slog.String("report_id", id), slog.String("error", derr.Error()))
	}
	return err
}

// Ping checks the inner store. An unreachable cache only degrades reads.
func (c *CachedStore) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache unreachable", slog.String("error", err.Error()))
	}
	return c.inner.Ping(ctx)
}

// Close closes the redis client and the inner store
func (c *CachedStore) Close() error {
	return errors.Join(c.client.Close(), c.inner.Close())
}

func (c *CachedStore) put(ctx context.Context, report *domain.StoredReport) {
	data, err := json.Marshal(report)
	if err != nil {
		c.logger.WarnContext(ctx, "cache encode failed", slog.String("report_id", report.ID), slog.String("error", err.Error()))
		return
	}
	if err := c.client.Set(ctx, cacheKey(report.ID), data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", slog.String("report_id", report.ID), slog.String("error", err.Error()))
	}
}

func (c *CachedStore) observe(ctx context.Context, hit bool) {
	if c.observer != nil {
		c.observer.RecordCacheLookup(ctx, hit)
	}
}
