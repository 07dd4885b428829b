package config

import (
	"errors"
	"testing"

	domainconfig "github.com/felixgeelhaar/heatshift/domain/config"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("HEATSHIFT_DSN", "postgres://db")
	t.Setenv("HEATSHIFT_EMPTY", "")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bracket", "${HEATSHIFT_DSN}", "postgres://db"},
		{"dollar", "$HEATSHIFT_DSN", "postgres://db"},
		{"embedded", "dsn: ${HEATSHIFT_DSN}/runs", "dsn: postgres://db/runs"},
		{"default unused", "${HEATSHIFT_DSN:-memory}", "postgres://db"},
		{"default for unset", "${HEATSHIFT_UNSET:-memory}", "memory"},
		{"default for empty", "${HEATSHIFT_EMPTY:-memory}", "memory"},
		{"empty default", "${HEATSHIFT_UNSET:-}", ""},
		{"default with colon", "${HEATSHIFT_UNSET:-localhost:6379}", "localhost:6379"},
		{"unset is empty", "address: ${HEATSHIFT_UNSET}", "address: "},
		{"no variables", "steps: 520", "steps: 520"},
		{"lone dollar", "cost: $5", "cost: $5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnv(tt.input); got != tt.want {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExpandEnvStrict(t *testing.T) {
	t.Setenv("HEATSHIFT_SEED", "7")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"set", "seed: ${HEATSHIFT_SEED}", "seed: 7", false},
		{"unset", "seed: $HEATSHIFT_UNSET", "", true},
		{"default satisfies strict", "${HEATSHIFT_UNSET:-1}", "1", false},
		{"required unset", "${HEATSHIFT_UNSET:?seed is required}", "", true},
		{"required set", "${HEATSHIFT_SEED:?seed is required}", "7", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandEnvStrict(tt.input)
			if tt.wantErr {
				if !errors.Is(err, domainconfig.ErrMissingEnvVar) {
					t.Fatalf("ExpandEnvStrict(%q) error = %v, want ErrMissingEnvVar", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExpandEnvStrict(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ExpandEnvStrict(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExpandEnv_RequiredFailsWithoutStrict(t *testing.T) {
	e := &envExpander{}
	if _, err := e.Expand("${HEATSHIFT_UNSET:?needed}"); !errors.Is(err, domainconfig.ErrMissingEnvVar) {
		t.Errorf("Expand() error = %v, want ErrMissingEnvVar", err)
	}
}
