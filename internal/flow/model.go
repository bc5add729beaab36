package flow

import (
	"encoding/json"

	"github.com/rendis/n8nview/pkg/schema"
)

// NodeRenderKind is the render-kind tag every display node carries; the
// canvas maps it to the summary card component.
const NodeRenderKind = "custom"

// EdgeKind is the curve style of every converted edge.
const EdgeKind = "smoothstep"

// Graph is the canvas-facing form of a workflow: positioned nodes and
// handle-addressed edges.
type Graph struct {
	Title string        `json:"title,omitempty"`
	Nodes []DisplayNode `json:"nodes"`
	Edges []DisplayEdge `json:"edges"`

	// Diagnostics holds unresolved connection references found while converting.
	Diagnostics schema.Report `json:"-"`
}

// DisplayNode is one positioned card on the canvas.
type DisplayNode struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Point    `json:"position"`
	Data     NodeData `json:"data"`
	Selected bool     `json:"selected,omitempty"`
}

// Point is a canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DisplayEdge is a directed link between two node handles.
type DisplayEdge struct {
	ID           string     `json:"id"`
	Source       string     `json:"source"`
	Target       string     `json:"target"`
	SourceHandle string     `json:"sourceHandle,omitempty"`
	TargetHandle string     `json:"targetHandle,omitempty"`
	Type         string     `json:"type"`
	Animated     bool       `json:"animated"`
	Style        *EdgeStyle `json:"style,omitempty"`

	// OutputIndex and InputIndex are the slot numbers behind the handles.
	// Manual edges leave them at zero.
	OutputIndex int  `json:"-"`
	InputIndex  int  `json:"-"`
	Manual      bool `json:"-"`
}

// EdgeStyle is the stroke applied to converted edges.
type EdgeStyle struct {
	Stroke      string `json:"stroke"`
	StrokeWidth int    `json:"strokeWidth"`
}

// DefaultEdgeStyle is the stroke of every converted edge.
func DefaultEdgeStyle() *EdgeStyle {
	return &EdgeStyle{Stroke: "#555", StrokeWidth: 2}
}

// NodeData is the free-form card payload: a label, the raw node type and
// exactly one category-specific Payload.
type NodeData struct {
	Label    string
	NodeType string
	Payload  Payload
}

// Category returns the category of the attached payload.
func (d NodeData) Category() Category {
	if d.Payload == nil {
		return Classify(d.NodeType)
	}
	return d.Payload.Category()
}

// MarshalJSON flattens the payload fields next to label and nodeType, the
// shape the canvas card reads.
func (d NodeData) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"label":    d.Label,
		"nodeType": d.NodeType,
		"category": d.Category(),
	}
	switch p := d.Payload.(type) {
	case ConditionalPayload:
		conds := p.Conditions
		if conds == nil {
			conds = []Condition{}
		}
		out["conditions"] = conds
		out["combinator"] = p.Combinator
	case SpreadsheetPayload:
		out["documentId"] = p.DocumentID
		out["sheetName"] = p.SheetName
	case EmailPayload:
		out["subject"] = p.Subject
	case GenericPayload:
		out["parameters"] = p.Parameters
	}
	return json.Marshal(out)
}

// Payload is the category-specific part of a node's data. The set of
// implementations is closed: ConditionalPayload, SpreadsheetPayload,
// EmailPayload and GenericPayload.
type Payload interface {
	Category() Category
	isPayload()
}

// ConditionalPayload carries the conditions of an "if" style node.
type ConditionalPayload struct {
	Conditions []Condition
	Combinator string
}

// SpreadsheetPayload carries the target document and tab of a sheets node.
type SpreadsheetPayload struct {
	DocumentID string
	SheetName  string
}

// EmailPayload carries the subject of a mail node.
type EmailPayload struct {
	Subject string
}

// GenericPayload carries the node parameters untouched.
type GenericPayload struct {
	Parameters json.RawMessage
}

func (ConditionalPayload) Category() Category { return CategoryConditional }
func (SpreadsheetPayload) Category() Category { return CategorySpreadsheet }
func (EmailPayload) Category() Category       { return CategoryEmail }
func (GenericPayload) Category() Category     { return CategoryGeneric }

func (ConditionalPayload) isPayload() {}
func (SpreadsheetPayload) isPayload() {}
func (EmailPayload) isPayload()       {}
func (GenericPayload) isPayload()     {}

// Condition is one comparison of a conditional node. The original JSON is
// kept in Raw and re-emitted unchanged.
type Condition struct {
	ID         string
	LeftValue  any
	RightValue any
	Operator   *Operator
	Raw        json.RawMessage
}

// Operator names the comparison a condition performs.
type Operator struct {
	Type        string `json:"type"`
	Operation   string `json:"operation"`
	SingleValue *bool  `json:"singleValue,omitempty"`
}

// MarshalJSON emits the condition exactly as it appeared in the document.
func (c Condition) MarshalJSON() ([]byte, error) {
	if len(c.Raw) > 0 {
		return c.Raw, nil
	}
	return json.Marshal(struct {
		ID         string    `json:"id,omitempty"`
		LeftValue  any       `json:"leftValue,omitempty"`
		RightValue any       `json:"rightValue,omitempty"`
		Operator   *Operator `json:"operator,omitempty"`
	}{c.ID, c.LeftValue, c.RightValue, c.Operator})
}

// NodeIDs returns the node ids in display order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*DisplayNode, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// Select marks exactly the given node ids as selected.
func (g *Graph) Select(ids []string) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for i := range g.Nodes {
		g.Nodes[i].Selected = want[g.Nodes[i].ID]
	}
}

// Clone returns a copy whose node and edge slices can be mutated freely.
// Payloads are shared; they are never mutated after conversion.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	out := &Graph{
		Title:       g.Title,
		Nodes:       make([]DisplayNode, len(g.Nodes)),
		Edges:       make([]DisplayEdge, len(g.Edges)),
		Diagnostics: g.Diagnostics,
	}
	copy(out.Nodes, g.Nodes)
	copy(out.Edges, g.Edges)
	return out
}
