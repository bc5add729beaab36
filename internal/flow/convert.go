package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/rendis/n8nview/pkg/schema"
)

const notAvailable = "N/A"

// Converter turns workflow documents into display graphs.
// It is stateless apart from its logger and safe for concurrent use.
type Converter struct {
	logger *slog.Logger
}

// NewConverter creates a Converter. A nil logger falls back to slog.Default.
func NewConverter(logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{logger: logger}
}

// Convert builds the display graph for doc. Nodes keep input order and ids.
// Connections whose source or target name cannot be resolved are skipped,
// logged at warn level and recorded in Graph.Diagnostics.
func (c *Converter) Convert(ctx context.Context, doc *schema.Document) *Graph {
	g := &Graph{
		Nodes: make([]DisplayNode, 0),
		Edges: make([]DisplayEdge, 0),
	}
	if doc == nil {
		return g
	}
	g.Title = doc.Name

	// Last write wins on duplicate ids or names.
	byID := make(map[string]*schema.Node, len(doc.Nodes))
	idByName := make(map[string]string, len(doc.Nodes))
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		byID[n.ID] = n
		idByName[n.Name] = n.ID
	}

	for i := range doc.Nodes {
		g.Nodes = append(g.Nodes, toDisplayNode(&doc.Nodes[i]))
	}

	if doc.Connections == nil {
		return g
	}

	for pair := doc.Connections.Oldest(); pair != nil; pair = pair.Next() {
		sourceName := pair.Key
		sourceID := idByName[sourceName]
		if sourceID == "" {
			c.logger.WarnContext(ctx, "source node not found in nodes", slog.String("source", sourceName))
			g.Diagnostics.AddWarning("connections/"+sourceName, schema.DiagUnknownSource,
				fmt.Sprintf("source node with name %q not found in nodes", sourceName))
			continue
		}

		for outputIndex, slot := range pair.Value.Main {
			for targetPos, target := range slot {
				targetID := idByName[target.Node]
				if targetID == "" || byID[targetID] == nil {
					c.logger.WarnContext(ctx, "target node not found in nodes",
						slog.String("source", sourceName),
						slog.String("target", target.Node),
						slog.Int("output", outputIndex),
					)
					g.Diagnostics.AddWarning(
						fmt.Sprintf("connections/%s/main/%d/%d", sourceName, outputIndex, targetPos),
						schema.DiagUnknownTarget,
						fmt.Sprintf("target node with name %q not found in nodes", target.Node))
					continue
				}
				g.Edges = append(g.Edges, newEdge(sourceID, targetID, outputIndex, target.Index))
			}
		}
	}

	return g
}

// Convert is a convenience wrapper using the default logger.
func Convert(doc *schema.Document) *Graph {
	return NewConverter(nil).Convert(context.Background(), doc)
}

func newEdge(sourceID, targetID string, outputIndex, inputIndex int) DisplayEdge {
	out, in := strconv.Itoa(outputIndex), strconv.Itoa(inputIndex)
	return DisplayEdge{
		ID:           "e-" + sourceID + "-" + targetID + "-" + out + "-" + in,
		Source:       sourceID,
		Target:       targetID,
		SourceHandle: "output-" + out,
		TargetHandle: "input-" + in,
		Type:         EdgeKind,
		Animated:     true,
		Style:        DefaultEdgeStyle(),
		OutputIndex:  outputIndex,
		InputIndex:   inputIndex,
	}
}

// ManualEdge builds the edge added when a user drags a new connection on the
// canvas. Its id carries no slot indices.
func ManualEdge(source, target, sourceHandle, targetHandle string) DisplayEdge {
	return DisplayEdge{
		ID:           "e-" + source + "-" + target,
		Source:       source,
		Target:       target,
		SourceHandle: sourceHandle,
		TargetHandle: targetHandle,
		Type:         EdgeKind,
		Animated:     true,
		Manual:       true,
	}
}

func toDisplayNode(n *schema.Node) DisplayNode {
	return DisplayNode{
		ID:       n.ID,
		Type:     NodeRenderKind,
		Position: Point{X: n.Position.X(), Y: n.Position.Y()},
		Data: NodeData{
			Label:    n.Name,
			NodeType: n.Type,
			Payload:  buildPayload(Classify(n.Type), n.Parameters),
		},
	}
}

func buildPayload(cat Category, raw json.RawMessage) Payload {
	params := decodeLoose(raw)

	switch cat {
	case CategoryConditional:
		return ConditionalPayload{
			Conditions: decodeConditions(rawLookup(raw, "conditions", "conditions")),
			Combinator: stringOr(lookup(params, "conditions", "combinator"), "and"),
		}
	case CategorySpreadsheet:
		return SpreadsheetPayload{
			DocumentID: scalarOr(lookup(params, "documentId", "cachedResultName"), notAvailable),
			SheetName:  scalarOr(lookup(params, "sheetName", "cachedResultName"), notAvailable),
		}
	case CategoryEmail:
		return EmailPayload{Subject: scalarOr(lookup(params, "subject"), notAvailable)}
	default:
		if !truthy(params) {
			return GenericPayload{Parameters: json.RawMessage(`{}`)}
		}
		return GenericPayload{Parameters: raw}
	}
}

// decodeConditions keeps every array element as a condition, raw bytes
// included; anything other than an array yields an empty list.
func decodeConditions(raw json.RawMessage) []Condition {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return []Condition{}
	}
	out := make([]Condition, 0, len(items))
	for _, item := range items {
		cond := Condition{Raw: item}
		if m, ok := decodeLoose(item).(map[string]any); ok {
			cond.ID, _ = m["id"].(string)
			cond.LeftValue = m["leftValue"]
			cond.RightValue = m["rightValue"]
			if op, ok := m["operator"].(map[string]any); ok {
				cond.Operator = &Operator{}
				cond.Operator.Type, _ = op["type"].(string)
				cond.Operator.Operation, _ = op["operation"].(string)
				if sv, ok := op["singleValue"].(bool); ok {
					cond.Operator.SingleValue = &sv
				}
			}
		}
		out = append(out, cond)
	}
	return out
}

// rawLookup walks nested objects without re-encoding the value it finds.
func rawLookup(raw json.RawMessage, path ...string) json.RawMessage {
	for _, key := range path {
		var m map[string]json.RawMessage
		if len(raw) == 0 || json.Unmarshal(raw, &m) != nil {
			return nil
		}
		raw = m[key]
	}
	return raw
}

// decodeLoose decodes raw JSON keeping numbers as json.Number. Invalid or
// empty input decodes to nil.
func decodeLoose(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if dec.Decode(&v) != nil {
		return nil
	}
	return v
}

// lookup walks nested objects; any missing or non-object step yields nil.
func lookup(v any, path ...string) any {
	for _, key := range path {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[key]
	}
	return v
}

// truthy follows the loose truth rules of the JSON tooling n8n exports come
// from: null, false, 0 and "" are false, every object and array is true.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case json.Number:
		f, err := val.Float64()
		return err == nil && f != 0
	default:
		return true
	}
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

// scalarOr renders a truthy scalar as text; objects, arrays and falsy
// values produce the fallback.
func scalarOr(v any, fallback string) string {
	if !truthy(v) {
		return fallback
	}
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return "true"
	default:
		return fallback
	}
}
