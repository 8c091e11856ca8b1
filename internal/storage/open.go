package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Imdraks/faxcloud-analyzer/internal/config"
)

// Open builds the report store described by the configuration, wrapped in
// the redis cache when it is enabled. observer may be nil.
func Open(ctx context.Context, storageCfg config.StorageConfig, cacheCfg config.CacheConfig, observer CacheObserver, logger *slog.Logger) (ReportStore, error) {
	var (
		store ReportStore
		err   error
	)

	switch storageCfg.Driver {
	case config.StorageMemory:
		store = NewMemoryStore()
	case config.StorageSQLite:
		store, err = OpenSQL(ctx, DialectSQLite, storageCfg.DSN, logger)
	case config.StoragePostgres:
		store, err = OpenSQL(ctx, DialectPostgres, storageCfg.DSN, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", storageCfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if !cacheCfg.Enabled {
		return store, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cacheCfg.Addr,
		Password: cacheCfg.Password,
		DB:       cacheCfg.DB,
	})
	return NewCachedStore(store, client, cacheCfg.TTL, logger).WithObserver(observer), nil
}
