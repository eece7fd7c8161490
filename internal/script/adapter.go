package script

import (
	"context"
	"encoding/json"

	"github.com/flemzord/sandscript/internal/tool"
)

// Adapter bridges one script definition to the generic tool interface. It is
// stateless and cheaply copyable: identity plus a shared Service reference,
// no logic of its own.
type Adapter struct {
	name        string
	description string
	schema      json.RawMessage
	service     *Service
}

// Name implements tool.Tool.
func (a Adapter) Name() string { return a.name }

// Description implements tool.Tool. The registry is consulted so a
// hot-reloaded definition advertises its current description.
func (a Adapter) Description() string {
	if def, ok := a.service.registry.Lookup(a.name); ok {
		return def.Description
	}
	return a.description
}

// Schema implements tool.Tool. Like Description, the live definition wins.
func (a Adapter) Schema() json.RawMessage {
	if def, ok := a.service.registry.Lookup(a.name); ok {
		return def.Schema
	}
	return a.schema
}

// Execute forwards verbatim to the service. Failures come back as error
// outputs so the orchestrator can hand the diagnostic to the model.
func (a Adapter) Execute(ctx context.Context, args json.RawMessage) (tool.Output, error) {
	out, err := a.service.Execute(ctx, a.name, args)
	if err != nil {
		return tool.Output{Content: err.Error(), IsError: true}, err
	}
	return tool.Output{Content: out}, nil
}
