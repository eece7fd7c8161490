package script

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/flemzord/sandscript/internal/sandbox"
)

func TestAdapter_ExecuteSuccess(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t, EngineConfig{})
	mustLoad(t, s, "greet.star", greetScript)

	adapter := s.Adapters()[0]
	out, err := adapter.Execute(context.Background(), json.RawMessage(`{"who":"adapter"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.IsError {
		t.Error("IsError = true, want false")
	}
	if out.Content != "hello adapter" {
		t.Errorf("Content = %q", out.Content)
	}
}

func TestAdapter_FailureBecomesErrorOutput(t *testing.T) {
	t.Parallel()

	src := `
name = "locked"

def run(args):
    return read_file("/etc/shadow")
`
	s, _ := newTestService(t, EngineConfig{})
	mustLoad(t, s, "locked.star", src)

	adapter := s.Adapters()[0]
	out, err := adapter.Execute(context.Background(), nil)
	if !errors.Is(err, sandbox.ErrPermissionDenied) {
		t.Fatalf("Execute = %v, want ErrPermissionDenied", err)
	}

	// The diagnostic also travels as an error output for the calling model.
	if !out.IsError {
		t.Error("IsError = false, want true")
	}
	if out.Content == "" {
		t.Error("Content is empty, want the diagnostic text")
	}
}
