// Package logging writes the structured run log of a simulation through
// bolt. Info carries run boundaries, impacts and checkpoints; debug adds the
// weekly pool summary; trace reports every agent transition.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/heatshift/domain/config"
)

var (
	defaultLogger *bolt.Logger
	once          sync.Once
)

// Config configures the run log.
type Config struct {
	// Level is the minimum level (trace, debug, info, warn, error).
	Level string

	// Format is json or console.
	Format string

	// Verbose forces debug level so weekly summaries show up.
	Verbose bool

	// Output receives the log. Result tables go to stdout, so runs log to
	// stderr.
	Output io.Writer
}

// DefaultConfig logs at info to the console, for interactive runs.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
		Output: os.Stdout,
	}
}

// BatchConfig logs JSON to stderr, for unattended sweeps whose stdout is
// collected as results.
func BatchConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
		Output: os.Stderr,
	}
}

// ForRun builds the log config of a simulation from its logging section.
func ForRun(c config.LoggingConfig, verbose bool, out io.Writer) Config {
	return Config{Level: c.Level, Format: c.Format, Verbose: verbose, Output: out}
}

// parseLevel converts a string level to bolt.Level.
func parseLevel(s string) bolt.Level {
	switch strings.ToLower(s) {
	case "trace":
		return bolt.TRACE
	case "debug":
		return bolt.DEBUG
	case "info":
		return bolt.INFO
	case "warn":
		return bolt.WARN
	case "error":
		return bolt.ERROR
	default:
		return bolt.INFO
	}
}

// New builds a run logger without touching the default one.
func New(cfg Config) *bolt.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	var handler bolt.Handler
	if cfg.Format == "json" {
		handler = bolt.NewJSONHandler(output)
	} else {
		handler = bolt.NewConsoleHandler(output)
	}

	level := cfg.Level
	if cfg.Verbose && !strings.EqualFold(level, "trace") {
		level = "debug"
	}
	return bolt.New(handler).SetLevel(parseLevel(level))
}

// Init sets the default logger once per process. A resumed run in the same
// process keeps the logger of the first.
func Init(cfg Config) {
	once.Do(func() {
		defaultLogger = New(cfg)
	})
}

// Get returns the default logger, falling back to DefaultConfig.
func Get() *bolt.Logger {
	if defaultLogger == nil {
		Init(DefaultConfig())
	}
	return defaultLogger
}

// SetLevel changes the log level of the default logger.
func SetLevel(level string) {
	Get().SetLevel(parseLevel(level))
}

// Entry collects fields for one run-log line.
type Entry struct {
	event *bolt.Event
}

// NewEntry wraps a bolt event.
func NewEntry(e *bolt.Event) *Entry {
	return &Entry{event: e}
}

// Add applies a field and returns the entry for chaining.
func (l *Entry) Add(f Field) *Entry {
	l.event = f(l.event)
	return l
}

// Msg writes the entry with a message.
func (l *Entry) Msg(msg string) {
	l.event.Msg(msg)
}

// Send writes the entry without a message.
func (l *Entry) Send() {
	l.event.Send()
}

// Trace starts an entry for per-agent detail.
func Trace() *Entry {
	return &Entry{event: Get().Trace()}
}

// Debug starts an entry for weekly summaries.
func Debug() *Entry {
	return &Entry{event: Get().Debug()}
}

// Info starts an entry for run milestones.
func Info() *Entry {
	return &Entry{event: Get().Info()}
}

func Warn() *Entry {
	return &Entry{event: Get().Warn()}
}

func Error() *Entry {
	return &Entry{event: Get().Error()}
}

func Fatal() *Entry {
	return &Entry{event: Get().Fatal()}
}
