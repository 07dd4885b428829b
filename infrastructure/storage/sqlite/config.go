// Package sqlite provides a SQLite-backed checkpoint store.
package sqlite

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Config configures the checkpoint database.
type Config struct {
	// DSN is a go-sqlite3 data source, e.g. "file:runs.db?mode=rwc".
	DSN string
	// MaxOpenConns caps the pool. Checkpoints are written by one run at a
	// time, so a small pool is enough.
	MaxOpenConns int
	AutoMigrate  bool
	// JournalMode is applied once on open; it persists in the file.
	JournalMode string
	// BusyTimeout in milliseconds, set on every pooled connection.
	BusyTimeout int
}

// Option configures a Config.
type Option func(*Config)

// WithDSN sets the data source name.
func WithDSN(dsn string) Option {
	return func(c *Config) { c.DSN = dsn }
}

// WithJournalMode sets the journal mode, e.g. "WAL".
func WithJournalMode(mode string) Option {
	return func(c *Config) { c.JournalMode = mode }
}

// WithBusyTimeout sets the busy timeout in milliseconds.
func WithBusyTimeout(ms int) Option {
	return func(c *Config) { c.BusyTimeout = ms }
}

// DefaultConfig writes to heatshift.db in WAL mode.
func DefaultConfig() Config {
	return Config{
		DSN:          "file:heatshift.db?mode=rwc",
		MaxOpenConns: 4,
		AutoMigrate:  true,
		JournalMode:  "WAL",
		BusyTimeout:  5000,
	}
}

var (
	ErrConnectionFailed = errors.New("sqlite: connection failed")
	ErrMigrationFailed  = errors.New("sqlite: migration failed")
)

func openDB(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn(cfg))
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	if cfg.JournalMode != "" {
		if _, err := db.Exec("PRAGMA journal_mode=" + cfg.JournalMode); err != nil {
			_ = db.Close()
			return nil, errors.Join(ErrMigrationFailed, err)
		}
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	return db, nil
}

func dsn(cfg Config) string {
	if cfg.BusyTimeout <= 0 || strings.Contains(cfg.DSN, "_busy_timeout") {
		return cfg.DSN
	}
	sep := "?"
	if strings.Contains(cfg.DSN, "?") {
		sep = "&"
	}
	return cfg.DSN + sep + "_busy_timeout=" + strconv.Itoa(cfg.BusyTimeout)
}
