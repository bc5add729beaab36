package expressions

import (
	"encoding/json"

	"github.com/rendis/n8nview/internal/flow"
)

// NodeScope builds the variables a selection predicate sees for one node:
//   - id, name, type, category: strings; nodeType repeats type for engines
//     that reserve the word
//   - position: {x, y}
//   - data: the card payload as the canvas receives it
//   - parameters: the raw parameters of generic nodes, else an empty map
//
// Numbers are float64, the representation jq and JSON share.
func NodeScope(n flow.DisplayNode) map[string]any {
	data := toMap(n.Data)
	params := map[string]any{}
	if p, ok := data["parameters"].(map[string]any); ok {
		params = p
	}
	return map[string]any{
		"id":         n.ID,
		"name":       n.Data.Label,
		"type":       n.Data.NodeType,
		"nodeType":   n.Data.NodeType,
		"category":   n.Data.Category().String(),
		"position":   map[string]any{"x": n.Position.X, "y": n.Position.Y},
		"data":       data,
		"parameters": params,
	}
}

// toMap round-trips v through JSON so every engine sees plain maps, slices,
// strings, float64 and bool.
func toMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if json.Unmarshal(raw, &out) != nil || out == nil {
		return map[string]any{}
	}
	return out
}
