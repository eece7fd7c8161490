package sandbox

import (
	"errors"
	"testing"
)

func TestIsSensitiveEnvVar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		sensitive bool
	}{
		{"OPENAI_API_KEY", true},
		{"ANTHROPIC_API_KEY", true},
		{"AWS_SECRET_ACCESS_KEY", true},
		{"AWS_SESSION_TOKEN", true},
		{"GITHUB_TOKEN", true},
		{"GH_TOKEN", true},
		{"DATABASE_URL", true},
		{"DB_PASSWORD", true},
		{"DB_PORT", false},
		{"DATABASE_HOST", false},
		{"PATH", false},
		{"HOME", false},
		{"LANG", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isSensitiveEnvVar(tt.name); got != tt.sensitive {
				t.Errorf("isSensitiveEnvVar(%q) = %v, want %v", tt.name, got, tt.sensitive)
			}
		})
	}
}

func TestIsSensitiveEnvVar_CaseInsensitive(t *testing.T) {
	t.Parallel()

	if !isSensitiveEnvVar("openai_api_key") {
		t.Error("expected lower case openai_api_key to be sensitive")
	}
	if !isSensitiveEnvVar("Github_Token") {
		t.Error("expected mixed case Github_Token to be sensitive")
	}
}

func TestGrant_EnvDeniedWithoutCapability(t *testing.T) {
	t.Parallel()

	g, err := NewGrant(Policy{})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := g.Env("HOME"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Env = %v, want ErrPermissionDenied", err)
	}
}

func TestGrant_EnvHidesSensitiveVars(t *testing.T) {
	// Not parallel: mutates the process environment.
	t.Setenv("SANDSCRIPT_TEST_PLAIN", "visible")
	t.Setenv("GITHUB_TOKEN", "hunter2")

	g, err := NewGrant(Policy{AllowEnv: true})
	if err != nil {
		t.Fatal(err)
	}

	value, ok, err := g.Env("SANDSCRIPT_TEST_PLAIN")
	if err != nil || !ok || value != "visible" {
		t.Fatalf("Env(plain) = %q, %v, %v; want \"visible\", true, nil", value, ok, err)
	}

	// Sensitive variables read as absent even when env access is granted.
	value, ok, err = g.Env("GITHUB_TOKEN")
	if err != nil {
		t.Fatalf("Env(sensitive) returned error: %v", err)
	}
	if ok || value != "" {
		t.Fatalf("Env(sensitive) = %q, %v; want hidden", value, ok)
	}
}
