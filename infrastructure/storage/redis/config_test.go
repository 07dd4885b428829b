package redis

import (
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/heatshift/domain/checkpoint"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Address != "localhost:6379" {
		t.Errorf("Address = %s, want localhost:6379", cfg.Address)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.KeyPrefix != "heatshift:" {
		t.Errorf("KeyPrefix = %s, want heatshift:", cfg.KeyPrefix)
	}
	if cfg.TTL != 0 {
		t.Errorf("TTL = %v, want 0", cfg.TTL)
	}
}

func TestConfigOptions_Chaining(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	for _, opt := range []ConfigOption{
		WithAddress("redis.example.com:6380"),
		WithPassword("secret"),
		WithDB(2),
		WithKeyPrefix("prod:sim:"),
		WithTTL(24 * time.Hour),
		WithDB(3),
	} {
		opt(&cfg)
	}

	opts, err := cfg.options()
	if err != nil {
		t.Fatalf("options() error = %v", err)
	}
	if opts.Addr != "redis.example.com:6380" || opts.Password != "secret" {
		t.Errorf("options = %s/%s", opts.Addr, opts.Password)
	}
	if opts.DB != 3 {
		t.Errorf("DB = %d, want the last option's 3", opts.DB)
	}
	if cfg.KeyPrefix != "prod:sim:" || cfg.TTL != 24*time.Hour {
		t.Errorf("KeyPrefix = %s, TTL = %v", cfg.KeyPrefix, cfg.TTL)
	}
}

func TestConfig_URLOverridesAddress(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	WithURL("redis://:pw@cache.internal:6390/4")(&cfg)

	opts, err := cfg.options()
	if err != nil {
		t.Fatalf("options() error = %v", err)
	}
	if opts.Addr != "cache.internal:6390" || opts.Password != "pw" || opts.DB != 4 {
		t.Errorf("options = %s/%s/%d", opts.Addr, opts.Password, opts.DB)
	}
	if opts.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", opts.MaxRetries)
	}
}

func TestConfig_BadURL(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.URL = "http://not-redis"
	if _, err := cfg.options(); !errors.Is(err, checkpoint.ErrConnectionFailed) {
		t.Errorf("options() error = %v, want ErrConnectionFailed", err)
	}
}

func TestNewClient_Unreachable(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Address = "127.0.0.1:1"
	cfg.MaxRetries = -1
	cfg.DialTimeout = 200 * time.Millisecond

	if _, err := NewClient(cfg); !errors.Is(err, checkpoint.ErrConnectionFailed) {
		t.Errorf("NewClient() error = %v, want ErrConnectionFailed", err)
	}
}
