// Package storage opens the checkpoint store a configuration names.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/heatshift/domain/checkpoint"
	"github.com/felixgeelhaar/heatshift/domain/config"
	"github.com/felixgeelhaar/heatshift/infrastructure/storage/badger"
	"github.com/felixgeelhaar/heatshift/infrastructure/storage/memory"
	"github.com/felixgeelhaar/heatshift/infrastructure/storage/postgres"
	"github.com/felixgeelhaar/heatshift/infrastructure/storage/redis"
	"github.com/felixgeelhaar/heatshift/infrastructure/storage/sqlite"
)

// ErrUnknownBackend is returned for a backend name Open does not know.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Handle is an open checkpoint store. Close releases its connections.
type Handle struct {
	checkpoint.Store
	Backend string
	close   func() error
}

// Close releases the store's resources.
func (h *Handle) Close() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

// Open connects the backend cfg names. Postgres tables are created on open.
// For redis, a DSN is read as a redis:// URL and wins over Address.
func Open(ctx context.Context, cfg config.StorageConfig) (*Handle, error) {
	switch cfg.Backend {
	case "", config.BackendMemory:
		return &Handle{Store: memory.NewCheckpointStore(), Backend: config.BackendMemory}, nil

	case config.BackendSQLite:
		s, err := sqlite.NewCheckpointStore(sqlite.DefaultConfig(), sqlite.WithDSN("file:"+cfg.Path+"?mode=rwc"))
		if err != nil {
			return nil, err
		}
		return &Handle{Store: s, Backend: cfg.Backend, close: s.Close}, nil

	case config.BackendBadger:
		opts := []badger.Option{badger.WithDir(cfg.Path)}
		if cfg.KeyPrefix != "" {
			opts = append(opts, badger.WithKeyPrefix(cfg.KeyPrefix))
		}
		s, err := badger.NewCheckpointStore(badger.DefaultConfig(), opts...)
		if err != nil {
			return nil, err
		}
		return &Handle{Store: s, Backend: cfg.Backend, close: s.Close}, nil

	case config.BackendPostgres:
		pgCfg := postgres.DefaultConfig()
		postgres.WithDSN(cfg.DSN)(&pgCfg)
		pool, err := postgres.NewPool(ctx, pgCfg)
		if err != nil {
			return nil, err
		}
		s := postgres.NewCheckpointStore(pool, pgCfg.Schema)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return &Handle{Store: s, Backend: cfg.Backend, close: func() error { pool.Close(); return nil }}, nil

	case config.BackendRedis:
		opts := []redis.ConfigOption{redis.WithAddress(cfg.Address), redis.WithTTL(cfg.TTL.Duration())}
		if cfg.DSN != "" {
			opts = append(opts, redis.WithURL(cfg.DSN))
		}
		if cfg.KeyPrefix != "" {
			opts = append(opts, redis.WithKeyPrefix(cfg.KeyPrefix))
		}
		s, err := redis.NewCheckpointStore(redis.DefaultConfig(), opts...)
		if err != nil {
			return nil, err
		}
		return &Handle{Store: s, Backend: cfg.Backend, close: s.Close}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
}
