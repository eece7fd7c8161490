package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type stubTool struct {
	name    string
	desc    string
	execute func(ctx context.Context, args json.RawMessage) (Output, error)
}

func (s stubTool) Name() string            { return s.name }
func (s stubTool) Description() string     { return s.desc }
func (s stubTool) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }

func (s stubTool) Execute(ctx context.Context, args json.RawMessage) (Output, error) {
	if s.execute != nil {
		return s.execute(ctx, args)
	}
	return Output{Content: "ok"}, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register(stubTool{name: "alpha"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := r.Get("alpha")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name() != "alpha" {
		t.Errorf("Name = %q, want %q", got.Name(), "alpha")
	}
}

func TestRegistry_RejectsEmptyName(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register(stubTool{name: "   "}); !errors.Is(err, ErrEmptyToolName) {
		t.Fatalf("Register = %v, want ErrEmptyToolName", err)
	}
}

func TestRegistry_RejectsDuplicate(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register(stubTool{name: "alpha"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(stubTool{name: "alpha"}); !errors.Is(err, ErrDuplicateTool) {
		t.Fatalf("Register = %v, want ErrDuplicateTool", err)
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if _, err := r.Get("ghost"); !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("Get = %v, want ErrToolNotFound", err)
	}
}

func TestRegistry_SchemasSorted(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(stubTool{name: name, desc: name + " tool"}); err != nil {
			t.Fatal(err)
		}
	}

	schemas := r.Schemas()
	want := []string{"alpha", "mid", "zeta"}
	if len(schemas) != len(want) {
		t.Fatalf("len(Schemas) = %d, want %d", len(schemas), len(want))
	}
	for i, name := range want {
		if schemas[i].Name != name {
			t.Errorf("Schemas[%d].Name = %q, want %q", i, schemas[i].Name, name)
		}
	}
}

func TestRegistry_ExecuteRecoversPanic(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	err := r.Register(stubTool{
		name: "boom",
		execute: func(context.Context, json.RawMessage) (Output, error) {
			panic("kaboom")
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	out, err := r.Execute(context.Background(), "boom", nil)
	if err == nil {
		t.Fatal("Execute after panic returned nil error")
	}
	if !out.IsError {
		t.Error("Output.IsError = false, want true after panic")
	}
}

func TestRegistry_ExecuteUnknownTool(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if _, err := r.Execute(context.Background(), "ghost", nil); !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("Execute = %v, want ErrToolNotFound", err)
	}
}
