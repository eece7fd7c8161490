package config

import (
	"strings"
	"testing"
	"time"

	"github.com/flemzord/sandscript/internal/observability"
)

func validConfig() *Config {
	return &Config{
		Version: "1",
		Scripts: ScriptsConfig{
			Dir:     "/opt/scripts",
			Timeout: 30 * time.Second,
		},
	}
}

func TestValidate_OK(t *testing.T) {
	t.Parallel()

	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Validate = %v, want nil", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Version: "2",
		Scripts: ScriptsConfig{
			OnDuplicate: "panic",
			Timeout:     -time.Second,
		},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"version", "scripts.dir", "on_duplicate", "timeout"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestValidate_TracingNeedsEndpoint(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Tracing = observability.TracingConfig{Enabled: true}

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "tracing.endpoint") {
		t.Fatalf("Validate = %v, want tracing.endpoint error", err)
	}
}
