package diagram

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// kindTag returns a short ASCII indicator for a node kind.
func kindTag(kind NodeKind) string {
	switch kind {
	case NodeKindConditional:
		return "[IF]"
	case NodeKindSpreadsheet:
		return "[SHEET]"
	case NodeKindEmail:
		return "[MAIL]"
	default:
		return ""
	}
}

// RenderASCII renders a DiagramModel as a text-based ASCII diagram.
// It uses a level-based layout with box-drawing characters, followed by the
// list of connections.
func RenderASCII(model *DiagramModel) string {
	var b strings.Builder

	// Title.
	if model.Title != "" {
		b.WriteString(fmt.Sprintf("=== %s ===\n\n", model.Title))
	}

	// Render each level.
	for levelIdx, level := range model.Levels {
		var boxes []asciiBox
		for _, nodeID := range level {
			node := findNode(model.Nodes, nodeID)
			if node == nil {
				continue
			}
			boxes = append(boxes, makeBox(node))
		}

		renderBoxRow(&b, boxes)

		if levelIdx < len(model.Levels)-1 {
			renderConnector(&b, len(boxes))
		}
	}

	if len(model.Edges) > 0 {
		b.WriteString("\n--- connections ---\n")
		for _, edge := range model.Edges {
			renderEdge(&b, model, edge)
		}
	}

	return b.String()
}

// asciiBox holds the rendered lines of a single box.
type asciiBox struct {
	lines []string
	width int
}

// makeBox creates an ASCII box holding the node's summary card.
func makeBox(node *Node) asciiBox {
	title := firstLine(node.Label)
	if tag := kindTag(node.Kind); tag != "" {
		title += " " + tag
	}
	if node.Selected {
		title = "* " + title
	}
	contentLines := []string{title}
	contentLines = append(contentLines, node.Card.BodyLines()...)
	if node.Card.Footer != "" {
		contentLines = append(contentLines, node.Card.Footer)
	}

	maxLen := 0
	for _, line := range contentLines {
		if n := utf8.RuneCountInString(line); n > maxLen {
			maxLen = n
		}
	}
	width := maxLen + 4 // 2 border + 2 padding

	var lines []string
	top := "┌" + strings.Repeat("─", width-2) + "┐"
	bot := "└" + strings.Repeat("─", width-2) + "┘"
	lines = append(lines, top)
	for _, content := range contentLines {
		padded := content + strings.Repeat(" ", maxLen-utf8.RuneCountInString(content))
		lines = append(lines, "│ "+padded+" │")
	}
	lines = append(lines, bot)

	return asciiBox{lines: lines, width: width}
}

// firstLine returns only the first line of a multi-line label.
func firstLine(s string) string {
	if i := strings.Index(s, "\n"); i >= 0 {
		return s[:i]
	}
	return s
}

// renderBoxRow writes boxes side by side.
func renderBoxRow(b *strings.Builder, boxes []asciiBox) {
	if len(boxes) == 0 {
		return
	}

	maxHeight := 0
	for _, box := range boxes {
		if len(box.lines) > maxHeight {
			maxHeight = len(box.lines)
		}
	}

	for row := 0; row < maxHeight; row++ {
		for i, box := range boxes {
			if i > 0 {
				b.WriteString("  ") // gap between boxes
			}
			if row < len(box.lines) {
				b.WriteString(box.lines[row])
			} else {
				b.WriteString(strings.Repeat(" ", box.width))
			}
		}
		b.WriteByte('\n')
	}
}

// renderConnector draws a vertical connector between levels.
func renderConnector(b *strings.Builder, boxCount int) {
	if boxCount == 0 {
		return
	}
	b.WriteString("       │\n")
	b.WriteString("       ▼\n")
}

// renderEdge writes one connection using node names.
func renderEdge(b *strings.Builder, model *DiagramModel, edge Edge) {
	arrow := "─→"
	if edge.Manual {
		arrow = "┈→"
	}
	line := fmt.Sprintf("  %s %s %s", nodeName(model, edge.From), arrow, nodeName(model, edge.To))
	if edge.Label != "" {
		line += " [" + edge.Label + "]"
	}
	b.WriteString(line)
	b.WriteByte('\n')
}

func nodeName(model *DiagramModel, id string) string {
	if node := findNode(model.Nodes, id); node != nil {
		return firstLine(node.Label)
	}
	return id
}

// findNode looks up a node by ID in the model's node list.
func findNode(nodes []*Node, id string) *Node {
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}
