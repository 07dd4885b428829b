package logging

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/heatshift/domain/agent"
	"github.com/felixgeelhaar/heatshift/domain/config"
)

// testLogger creates a logger that writes to a buffer for testing
func testLogger() (*bolt.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return New(Config{Level: "trace", Format: "json", Output: buf}), buf
}

func TestConfigs(t *testing.T) {
	t.Parallel()

	if c := DefaultConfig(); c.Level != "info" || c.Format != "console" || c.Output != os.Stdout {
		t.Errorf("DefaultConfig() = %+v", c)
	}
	if c := BatchConfig(); c.Format != "json" || c.Output != os.Stderr {
		t.Errorf("BatchConfig() = %+v", c)
	}
	c := ForRun(config.LoggingConfig{Level: "warn", Format: "json"}, true, os.Stderr)
	if c.Level != "warn" || c.Format != "json" || !c.Verbose || c.Output != os.Stderr {
		t.Errorf("ForRun() = %+v", c)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bolt.Level
	}{
		{"trace", bolt.TRACE},
		{"debug", bolt.DEBUG},
		{"INFO", bolt.INFO},
		{"warn", bolt.WARN},
		{"error", bolt.ERROR},
		{"unknown", bolt.INFO},
		{"", bolt.INFO},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field Field
		want  string
	}{
		{"run id", RunID("run-123"), `"run_id":"run-123"`},
		{"step", Step(52), `"step":52`},
		{"agent", AgentID("h7"), `"agent_id":"h7"`},
		{"stage", Stage(agent.StagePreactional), `"stage":"preactional"`},
		{"transition", Transition(agent.Inactive, agent.Predecisional), `"to":"` + agent.Predecisional.String() + `"`},
		{"milieu", Milieu("leading"), `"milieu":"leading"`},
		{"system", System("pellet"), `"system":"pellet"`},
		{"obstacle", Obstacle("knowledge"), `"obstacle":"knowledge"`},
		{"intermediary", Intermediary("plumber-1"), `"intermediary":"plumber-1"`},
		{"trigger", Trigger("breakdown"), `"trigger":"breakdown"`},
		{"seed", Seed(18446744073709551615), `"seed":"18446744073709551615"`},
		{"count", Count("installations", 3), `"installations":3`},
		{"ratio", Ratio("satisfied", 0.5), `"satisfied":"0.5000"`},
		{"duration", Duration(1500 * time.Millisecond), `"duration_ms":1500`},
		{"reason", Reason("breakdown"), `"reason":"breakdown"`},
		{"component", Component("scheduler"), `"component":"scheduler"`},
		{"str", Str("key", "value"), `"key":"value"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, buf := testLogger()
			tt.field(logger.Info()).Msg("test")
			if !bytes.Contains(buf.Bytes(), []byte(tt.want)) {
				t.Errorf("output %s does not contain %s", buf.String(), tt.want)
			}
		})
	}
}

func TestErrorField(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()
	ErrorField(nil)(logger.Info()).Msg("no error")
	if bytes.Contains(buf.Bytes(), []byte(`"error"`)) {
		t.Errorf("nil error was logged: %s", buf.String())
	}

	buf.Reset()
	ErrorField(errors.New("store unavailable"))(logger.Error()).Msg("failed")
	if !bytes.Contains(buf.Bytes(), []byte("store unavailable")) {
		t.Errorf("error missing from output: %s", buf.String())
	}
}

func TestEntry(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()
	NewEntry(logger.Info()).Add(RunID("run-1")).Add(Step(3)).Msg("step")
	for _, want := range []string{`"run_id":"run-1"`, `"step":3`} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Errorf("output %s does not contain %s", buf.String(), want)
		}
	}

	buf.Reset()
	NewEntry(logger.Info()).Add(RunID("run-2")).Send()
	if !bytes.Contains(buf.Bytes(), []byte(`"run_id":"run-2"`)) {
		t.Errorf("Send() output %s", buf.String())
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := New(Config{Level: "warn", Format: "json", Output: buf})
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	if bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Errorf("info logged at warn level: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("shown")) {
		t.Errorf("warn missing: %s", buf.String())
	}
}

func TestNew_VerboseShowsWeeklySummaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		summary bool
		detail  bool
	}{
		{"info", Config{Level: "info"}, false, false},
		{"verbose info", Config{Level: "info", Verbose: true}, true, false},
		{"verbose warn", Config{Level: "warn", Verbose: true}, true, false},
		{"verbose trace", Config{Level: "trace", Verbose: true}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf := &bytes.Buffer{}
			tt.cfg.Format = "json"
			tt.cfg.Output = buf
			logger := New(tt.cfg)
			logger.Debug().Msg("week summary")
			logger.Trace().Msg("agent transition")

			if got := bytes.Contains(buf.Bytes(), []byte("week summary")); got != tt.summary {
				t.Errorf("debug logged = %v, want %v", got, tt.summary)
			}
			if got := bytes.Contains(buf.Bytes(), []byte("agent transition")); got != tt.detail {
				t.Errorf("trace logged = %v, want %v", got, tt.detail)
			}
		})
	}
}
