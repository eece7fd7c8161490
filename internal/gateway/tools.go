package gateway

import (
	"encoding/json"
	"net/http"
)

// ToolEntry is one registered tool in the GET /v1/tools response.
type ToolEntry struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// handleTools lists the registered tool schemas, sorted by name.
func (g *Gateway) handleTools() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		var entries []ToolEntry
		if g.registry != nil {
			schemas := g.registry.Schemas()
			entries = make([]ToolEntry, 0, len(schemas))
			for _, s := range schemas {
				entries = append(entries, ToolEntry{
					Name:        s.Name,
					Description: s.Description,
					Parameters:  s.Schema,
				})
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(entries)
	}
}
