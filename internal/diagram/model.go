package diagram

import "github.com/rendis/n8nview/internal/summary"

// NodeKind classifies a diagram node by its display category.
type NodeKind string

const (
	NodeKindGeneric     NodeKind = "generic"
	NodeKindConditional NodeKind = "conditional"
	NodeKindSpreadsheet NodeKind = "spreadsheet"
	NodeKindEmail       NodeKind = "email"
)

// DiagramModel is the intermediate representation used by all renderers.
type DiagramModel struct {
	Title  string
	Nodes  []*Node
	Edges  []Edge
	Levels [][]string
}

// Node represents a single workflow node in the diagram.
type Node struct {
	ID         string
	Label      string
	Kind       NodeKind
	Background string
	Card       summary.Card
	Selected   bool
}

// Edge represents a connection between two nodes.
type Edge struct {
	From   string
	To     string
	Label  string
	Manual bool
}
