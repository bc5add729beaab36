package schema

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Document is an exported n8n workflow as read from disk.
// Only Nodes and Connections drive the conversion; Name feeds diagram titles.
type Document struct {
	Name        string       `json:"-"`
	Nodes       []Node       `json:"nodes"`
	Connections *Connections `json:"connections"`
}

// Connections maps a source node name to its output slots, in file order.
type Connections = orderedmap.OrderedMap[string, ConnectionGroup]

// NewConnections returns an empty, ordered connections mapping.
func NewConnections() *Connections {
	return orderedmap.New[string, ConnectionGroup]()
}

// Node is a single workflow step.
type Node struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	TypeVersion float64         `json:"typeVersion,omitempty"`
	Position    Position        `json:"position"`
	Parameters  json.RawMessage `json:"parameters,omitempty"` // opaque, passed through verbatim
	Credentials json.RawMessage `json:"credentials,omitempty"`
	Disabled    bool            `json:"disabled,omitempty"`
}

// Position is the [x, y] pair n8n stores for every node.
type Position [2]float64

// UnmarshalJSON accepts arrays of any length; missing or non-numeric
// coordinates stay 0.
func (p *Position) UnmarshalJSON(data []byte) error {
	*p = Position{}
	var coords []any
	if json.Unmarshal(data, &coords) != nil {
		return nil
	}
	for i := 0; i < len(coords) && i < 2; i++ {
		if f, ok := coords[i].(float64); ok {
			p[i] = f
		}
	}
	return nil
}

// X returns the horizontal coordinate.
func (p Position) X() float64 { return p[0] }

// Y returns the vertical coordinate.
func (p Position) Y() float64 { return p[1] }

// ConnectionGroup holds the outputs of one source node. Each entry of Main is
// an output slot listing the targets wired to it.
type ConnectionGroup struct {
	Main [][]ConnectionTarget `json:"main"`
}

// UnmarshalJSON decodes Main leniently: a non-object group or non-array main
// yields no slots and a malformed slot becomes an empty slot, so later slot
// indices do not shift.
func (g *ConnectionGroup) UnmarshalJSON(data []byte) error {
	g.Main = nil
	var raw struct {
		Main json.RawMessage `json:"main"`
	}
	if json.Unmarshal(data, &raw) != nil {
		return nil
	}

	var slots []json.RawMessage
	if len(raw.Main) == 0 || json.Unmarshal(raw.Main, &slots) != nil {
		return nil
	}
	g.Main = make([][]ConnectionTarget, len(slots))
	for i, slot := range slots {
		var targets []ConnectionTarget
		if json.Unmarshal(slot, &targets) == nil {
			g.Main[i] = targets
		}
	}
	return nil
}

// ConnectionTarget points at an input slot of another node, by node name.
type ConnectionTarget struct {
	Node  string `json:"node"`
	Type  string `json:"type,omitempty"`
	Index int    `json:"index"` // input slot, 0 when absent
}

// UnmarshalJSON never fails: a malformed target decodes to an empty node name,
// which the converter reports as unresolved.
func (t *ConnectionTarget) UnmarshalJSON(data []byte) error {
	*t = ConnectionTarget{}
	var raw struct {
		Node  any             `json:"node"`
		Type  any             `json:"type"`
		Index json.RawMessage `json:"index"`
	}
	if json.Unmarshal(data, &raw) != nil {
		return nil
	}
	if s, ok := raw.Type.(string); ok {
		t.Type = s
	}
	if s, ok := raw.Node.(string); ok {
		t.Node = s
	}
	var idx float64
	if len(raw.Index) > 0 && json.Unmarshal(raw.Index, &idx) == nil {
		t.Index = int(idx)
	}
	return nil
}

// UnmarshalJSON decodes a document, keeping connections in file order.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        json.RawMessage `json:"name"`
		Nodes       []Node          `json:"nodes"`
		Connections *Connections    `json:"connections"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var name string
	if len(raw.Name) > 0 && json.Unmarshal(raw.Name, &name) == nil {
		d.Name = name
	}
	d.Nodes = raw.Nodes
	d.Connections = raw.Connections
	return nil
}

// MarshalJSON re-encodes the document; connections keep their order.
func (d Document) MarshalJSON() ([]byte, error) {
	conns := d.Connections
	if conns == nil {
		conns = NewConnections()
	}
	out := struct {
		Name        string       `json:"name,omitempty"`
		Nodes       []Node       `json:"nodes"`
		Connections *Connections `json:"connections"`
	}{Name: d.Name, Nodes: d.Nodes, Connections: conns}
	if out.Nodes == nil {
		out.Nodes = []Node{}
	}
	return json.Marshal(out)
}
