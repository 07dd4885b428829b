// Package redis provides a Redis-backed checkpoint store.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/heatshift/domain/checkpoint"
)

// Config holds Redis connection settings.
type Config struct {
	// URL, when set, takes precedence over Address, Password and DB,
	// e.g. "redis://:secret@cache:6379/2".
	URL         string
	Address     string
	Password    string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	// KeyPrefix namespaces every key the store writes.
	KeyPrefix string
	// TTL expires a run's checkpoints after its last save. Zero keeps them.
	TTL time.Duration
}

// DefaultConfig points at a local server.
func DefaultConfig() Config {
	return Config{
		Address:     "localhost:6379",
		MaxRetries:  3,
		DialTimeout: 5 * time.Second,
		KeyPrefix:   "heatshift:",
	}
}

// ConfigOption configures the Redis connection.
type ConfigOption func(*Config)

// WithURL sets a redis:// or rediss:// connection URL.
func WithURL(url string) ConfigOption {
	return func(c *Config) { c.URL = url }
}

// WithAddress sets the server address.
func WithAddress(addr string) ConfigOption {
	return func(c *Config) { c.Address = addr }
}

// WithPassword sets the authentication password.
func WithPassword(password string) ConfigOption {
	return func(c *Config) { c.Password = password }
}

// WithDB selects the database index.
func WithDB(db int) ConfigOption {
	return func(c *Config) { c.DB = db }
}

// WithKeyPrefix sets the key namespace.
func WithKeyPrefix(prefix string) ConfigOption {
	return func(c *Config) { c.KeyPrefix = prefix }
}

// WithTTL sets how long checkpoints outlive the last save of their run.
func WithTTL(ttl time.Duration) ConfigOption {
	return func(c *Config) { c.TTL = ttl }
}

func (c Config) options() (*redis.Options, error) {
	if c.URL != "" {
		opts, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, errors.Join(checkpoint.ErrConnectionFailed, err)
		}
		opts.MaxRetries = c.MaxRetries
		if c.DialTimeout > 0 {
			opts.DialTimeout = c.DialTimeout
		}
		return opts, nil
	}
	return &redis.Options{
		Addr:        c.Address,
		Password:    c.Password,
		DB:          c.DB,
		MaxRetries:  c.MaxRetries,
		DialTimeout: c.DialTimeout,
	}, nil
}

// NewClient connects a client and checks the server answers.
func NewClient(cfg Config) (*redis.Client, error) {
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(checkpoint.ErrConnectionFailed, err)
	}
	return client, nil
}
