package diagram

import (
	"fmt"
	"strconv"

	"github.com/rendis/n8nview/internal/flow"
	"github.com/rendis/n8nview/internal/summary"
)

// Build constructs a DiagramModel from a display graph. Nodes keep graph
// order; levels follow the longest path from the roots, with nodes caught in
// cycles placed on a final level.
func Build(g *flow.Graph) (*DiagramModel, error) {
	if g == nil {
		return nil, fmt.Errorf("diagram: nil graph")
	}

	nodes := make([]*Node, 0, len(g.Nodes))
	kinds := make(map[string]NodeKind, len(g.Nodes))
	for i := range g.Nodes {
		node := displayToNode(&g.Nodes[i])
		nodes = append(nodes, node)
		kinds[node.ID] = node.Kind
	}

	edges := make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		edges = append(edges, Edge{
			From:   e.Source,
			To:     e.Target,
			Label:  edgeLabel(e, kinds[e.Source]),
			Manual: e.Manual,
		})
	}

	return &DiagramModel{
		Title:  titleFromGraph(g),
		Nodes:  nodes,
		Edges:  edges,
		Levels: buildLevels(nodes, edges),
	}, nil
}

// displayToNode maps a canvas node to a diagram Node.
func displayToNode(n *flow.DisplayNode) *Node {
	card := summary.Render(n.Data)
	return &Node{
		ID:         n.ID,
		Label:      nodeLabel(n),
		Kind:       categoryToKind(card.Category),
		Background: card.Background,
		Card:       card,
		Selected:   n.Selected,
	}
}

func categoryToKind(c flow.Category) NodeKind {
	switch c {
	case flow.CategoryConditional:
		return NodeKindConditional
	case flow.CategorySpreadsheet:
		return NodeKindSpreadsheet
	case flow.CategoryEmail:
		return NodeKindEmail
	default:
		return NodeKindGeneric
	}
}

// nodeLabel creates a human-readable label: the node name, then its type.
func nodeLabel(n *flow.DisplayNode) string {
	label := n.Data.Label
	if label == "" {
		label = n.ID
	}
	if n.Data.NodeType != "" {
		return fmt.Sprintf("%s\n(%s)", label, n.Data.NodeType)
	}
	return label
}

// edgeLabel names the branch of conditional outputs and the slot of any other
// non-default output. Manual edges carry no slot.
func edgeLabel(e flow.DisplayEdge, sourceKind NodeKind) string {
	if e.Manual {
		return ""
	}
	if sourceKind == NodeKindConditional {
		switch e.OutputIndex {
		case 0:
			return "true"
		case 1:
			return "false"
		}
	}
	if e.OutputIndex > 0 {
		return "output " + strconv.Itoa(e.OutputIndex)
	}
	return ""
}

// buildLevels runs Kahn's algorithm over the node order. A node's level is one
// past the deepest of its resolved predecessors. Edges to unknown ids and
// self loops are ignored.
func buildLevels(nodes []*Node, edges []Edge) [][]string {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	inDegree := make(map[string]int, len(nodes))
	next := make(map[string][]string, len(nodes))
	seen := make(map[[2]string]bool, len(edges))
	for _, e := range edges {
		if !known[e.From] || !known[e.To] || e.From == e.To {
			continue
		}
		key := [2]string{e.From, e.To}
		if seen[key] {
			continue
		}
		seen[key] = true
		next[e.From] = append(next[e.From], e.To)
		inDegree[e.To]++
	}

	depth := make(map[string]int, len(nodes))
	placed := make(map[string]bool, len(nodes))
	var queue []string
	for _, n := range nodes {
		if inDegree[n.ID] == 0 && !placed[n.ID] {
			queue = append(queue, n.ID)
			placed[n.ID] = true
		}
	}

	var order []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, to := range next[id] {
			if depth[id]+1 > depth[to] {
				depth[to] = depth[id] + 1
			}
			inDegree[to]--
			if inDegree[to] == 0 {
				queue = append(queue, to)
				placed[to] = true
			}
		}
	}

	maxLevel := -1
	for _, id := range order {
		if depth[id] > maxLevel {
			maxLevel = depth[id]
		}
	}

	// Group by level in node order so output is stable.
	levels := make([][]string, maxLevel+1)
	var cyclic []string
	for _, n := range nodes {
		if !placed[n.ID] {
			cyclic = append(cyclic, n.ID)
			continue
		}
		if containsID(levels[depth[n.ID]], n.ID) {
			continue
		}
		levels[depth[n.ID]] = append(levels[depth[n.ID]], n.ID)
	}
	if len(cyclic) > 0 {
		levels = append(levels, cyclic)
	}
	return levels
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// titleFromGraph generates a diagram title from the workflow name.
func titleFromGraph(g *flow.Graph) string {
	if g.Title != "" {
		return g.Title
	}
	return "Workflow"
}
