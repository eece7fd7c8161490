package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flemzord/sandscript/internal/observability"
	"github.com/flemzord/sandscript/internal/tool"
)

type fakeTool struct {
	name string
	desc string
}

func (f fakeTool) Name() string            { return f.name }
func (f fakeTool) Description() string     { return f.desc }
func (f fakeTool) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }

func (f fakeTool) Execute(context.Context, json.RawMessage) (tool.Output, error) {
	return tool.Output{Content: "ok"}, nil
}

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()

	registry := tool.NewRegistry()
	for _, name := range []string{"beta", "alpha"} {
		if err := registry.Register(fakeTool{name: name, desc: name + " tool"}); err != nil {
			t.Fatal(err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(Config{}, registry, observability.NewMetrics(), logger)
}

func TestGateway_Health(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	server := httptest.NewServer(g.buildRouter())
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("Status = %q, want ok", health.Status)
	}
	if health.Tools != 2 {
		t.Errorf("Tools = %d, want 2", health.Tools)
	}
}

func TestGateway_ToolsListing(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	server := httptest.NewServer(g.buildRouter())
	defer server.Close()

	resp, err := http.Get(server.URL + "/v1/tools")
	if err != nil {
		t.Fatalf("GET /v1/tools: %v", err)
	}
	defer resp.Body.Close()

	var entries []ToolEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Name != "alpha" || entries[1].Name != "beta" {
		t.Errorf("names = %q, %q; want sorted", entries[0].Name, entries[1].Name)
	}
	if entries[0].Description != "alpha tool" {
		t.Errorf("Description = %q", entries[0].Description)
	}
	if string(entries[0].Parameters) != `{"type":"object"}` {
		t.Errorf("Parameters = %s", entries[0].Parameters)
	}
}

func TestGateway_MetricsEndpoint(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	server := httptest.NewServer(g.buildRouter())
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestGateway_StartAndStop(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	g.config.Bind = "127.0.0.1:0"

	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := g.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestGateway_StopWithoutStart(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	if err := g.Stop(context.Background()); err != nil {
		t.Fatalf("Stop = %v, want nil when never started", err)
	}
}
