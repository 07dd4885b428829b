// Package badger provides a BadgerDB-backed checkpoint store.
package badger

import (
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Config configures the checkpoint database.
type Config struct {
	// Dir holds the database files. Ignored when InMemory is set.
	Dir      string
	InMemory bool
	// SyncWrites fsyncs every checkpoint before Save returns.
	SyncWrites bool
	// KeyPrefix namespaces checkpoint keys within the database.
	KeyPrefix string
	// GCInterval runs value-log GC periodically; zero disables it.
	GCInterval     time.Duration
	GCDiscardRatio float64
	Logger         badger.Logger
}

// Option configures a Config.
type Option func(*Config)

// WithDir sets the data directory.
func WithDir(dir string) Option {
	return func(c *Config) { c.Dir = dir }
}

// WithInMemory keeps the database in memory.
func WithInMemory() Option {
	return func(c *Config) { c.InMemory = true }
}

// WithSyncWrites fsyncs each write.
func WithSyncWrites() Option {
	return func(c *Config) { c.SyncWrites = true }
}

// WithKeyPrefix sets the key namespace.
func WithKeyPrefix(prefix string) Option {
	return func(c *Config) { c.KeyPrefix = prefix }
}

// WithGCInterval sets how often value-log GC runs.
func WithGCInterval(d time.Duration) Option {
	return func(c *Config) { c.GCInterval = d }
}

// WithLogger routes badger's own log output.
func WithLogger(logger badger.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// DefaultConfig keeps one version per key and collects garbage every five
// minutes.
func DefaultConfig() Config {
	return Config{
		KeyPrefix:      "heatshift/",
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// ErrConnectionFailed is returned when the database cannot be opened.
var ErrConnectionFailed = errors.New("badger: connection failed")

func openDB(cfg Config) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Dir).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(cfg.Logger)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	return db, nil
}
