package diagram

import (
	"fmt"
	"strings"
)

// RenderMermaid renders a DiagramModel as a Mermaid flowchart string.
func RenderMermaid(model *DiagramModel) string {
	var b strings.Builder

	b.WriteString("graph TD\n")

	// Title as comment.
	if model.Title != "" {
		b.WriteString(fmt.Sprintf("    %%%% %s\n", model.Title))
	}

	// Render nodes with shapes based on kind.
	for _, node := range model.Nodes {
		b.WriteString(fmt.Sprintf("    %s\n", mermaidNodeDef(node)))
	}

	// Render edges. Manual edges are dotted.
	for _, edge := range model.Edges {
		arrow := "-->"
		if edge.Manual {
			arrow = "-.->"
		}
		label := ""
		if edge.Label != "" {
			label = fmt.Sprintf("|%s|", mermaidEscapeLabel(edge.Label))
		}
		b.WriteString(fmt.Sprintf("    %s %s%s %s\n",
			mermaidSafeID(edge.From), arrow, label, mermaidSafeID(edge.To)))
	}

	// Category class definitions.
	b.WriteString("\n")
	b.WriteString("    classDef generic fill:#fff,stroke:#ccc,color:#222\n")
	b.WriteString("    classDef conditional fill:#e6f3ff,stroke:#ccc,color:#222\n")
	b.WriteString("    classDef spreadsheet fill:#e6ffe6,stroke:#ccc,color:#222\n")
	b.WriteString("    classDef email fill:#ffe6e6,stroke:#ccc,color:#222\n")
	b.WriteString("    classDef selected stroke:#1a5276,stroke-width:3px\n")

	// Apply category classes.
	for _, node := range model.Nodes {
		b.WriteString(fmt.Sprintf("    class %s %s\n", mermaidSafeID(node.ID), node.Kind))
		if node.Selected {
			b.WriteString(fmt.Sprintf("    class %s selected\n", mermaidSafeID(node.ID)))
		}
	}

	return b.String()
}

// mermaidNodeDef returns a Mermaid node definition with the appropriate shape.
func mermaidNodeDef(node *Node) string {
	id := mermaidSafeID(node.ID)
	label := `"` + mermaidEscapeLabel(firstLine(node.Label)) + `"`

	switch node.Kind {
	case NodeKindConditional:
		return fmt.Sprintf("%s{%s}", id, label)
	case NodeKindSpreadsheet:
		return fmt.Sprintf("%s[(%s)]", id, label)
	case NodeKindEmail:
		return fmt.Sprintf("%s>%s]", id, label)
	default:
		return fmt.Sprintf("%s[%s]", id, label)
	}
}

// mermaidSafeID converts a node ID to a Mermaid-safe identifier.
// Anything outside [A-Za-z0-9_] becomes an underscore; the prefix keeps ids
// such as "end" or "1" from clashing with Mermaid keywords.
func mermaidSafeID(id string) string {
	return "n_" + strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}

var mermaidLabelReplacer = strings.NewReplacer(`"`, "#quot;", "|", "#124;", "\n", " ")

// mermaidEscapeLabel escapes characters that end a quoted Mermaid label.
func mermaidEscapeLabel(s string) string {
	return mermaidLabelReplacer.Replace(s)
}
