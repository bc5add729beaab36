// Package summary turns a node's display payload into the compact card shown
// on the canvas, in diagrams and in CLI output.
package summary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rendis/n8nview/internal/flow"
)

// PreviewLength is the number of characters of serialized parameters shown
// before the ellipsis.
const PreviewLength = 50

// Card is the rendered summary of one node.
type Card struct {
	Title      string        `json:"title"`
	Heading    string        `json:"heading,omitempty"`
	Lines      []Line        `json:"lines,omitempty"`
	Footer     string        `json:"footer"`
	Background string        `json:"background"`
	Category   flow.Category `json:"category"`
}

// Line is one row of a card body. Condition rows set Condition and leave
// Label empty; every other row is a "Label: Value" pair.
type Line struct {
	Label     string         `json:"label,omitempty"`
	Value     string         `json:"value,omitempty"`
	Condition *ConditionLine `json:"condition,omitempty"`
}

// ConditionLine is a single comparison, split so renderers can emphasize the
// operation.
type ConditionLine struct {
	Left      string `json:"left"`
	Operation string `json:"operation"`
	Right     string `json:"right"`
}

func (l Line) String() string {
	if l.Condition != nil {
		return joinNonEmpty(l.Condition.Left, l.Condition.Operation, l.Condition.Right)
	}
	if l.Label == "" {
		return l.Value
	}
	return l.Label + ": " + l.Value
}

// Render builds the card for a node. The first matching body wins:
// conditions, then spreadsheet, then email subject, then parameters.
// The footer always names the node type.
func Render(data flow.NodeData) Card {
	cat := flow.Classify(data.NodeType)
	card := Card{
		Title:      data.Label,
		Footer:     "Type: " + data.NodeType,
		Background: cat.Background(),
		Category:   cat,
	}

	switch p := data.Payload.(type) {
	case flow.ConditionalPayload:
		if len(p.Conditions) == 0 {
			break
		}
		card.Heading = fmt.Sprintf("Conditions (%s):", strings.ToUpper(p.Combinator))
		for _, c := range p.Conditions {
			card.Lines = append(card.Lines, Line{Condition: conditionLine(c)})
		}
	case flow.SpreadsheetPayload:
		if p.DocumentID == "" {
			break
		}
		card.Lines = append(card.Lines, Line{Label: "Sheet", Value: p.DocumentID})
		if p.SheetName != "" {
			card.Lines = append(card.Lines, Line{Label: "Tab", Value: p.SheetName})
		}
	case flow.EmailPayload:
		if p.Subject != "" {
			card.Lines = append(card.Lines, Line{Label: "Email Subject", Value: p.Subject})
		}
	case flow.GenericPayload:
		if preview, ok := parametersPreview(p.Parameters); ok {
			card.Lines = append(card.Lines, Line{Label: "Parameters", Value: preview})
		}
	}
	return card
}

// Text renders the card as plain text: title, optional heading, body rows
// and footer, one per line.
func (c Card) Text() string {
	var b strings.Builder
	b.WriteString(c.Title)
	b.WriteByte('\n')
	if c.Heading != "" {
		b.WriteString(c.Heading)
		b.WriteByte('\n')
	}
	for _, l := range c.Lines {
		if l.Condition != nil {
			b.WriteString("  ")
		}
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	b.WriteString(c.Footer)
	return b.String()
}

// BodyLines returns the heading and body rows as plain strings, without
// title and footer.
func (c Card) BodyLines() []string {
	var out []string
	if c.Heading != "" {
		out = append(out, c.Heading)
	}
	for _, l := range c.Lines {
		out = append(out, l.String())
	}
	return out
}

var braceStripper = strings.NewReplacer("{{ ", "", " }}", "")

func conditionLine(c flow.Condition) *ConditionLine {
	line := &ConditionLine{
		Left:  braceStripper.Replace(displayValue(c.LeftValue)),
		Right: displayValue(c.RightValue),
	}
	if c.Operator != nil {
		line.Operation = strings.ToUpper(c.Operator.Operation)
	}
	return line
}

// displayValue renders a decoded JSON value the way a card shows it.
// Booleans and null show as nothing.
func displayValue(v any) string {
	switch val := v.(type) {
	case nil, bool:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// parametersPreview shows objects and arrays as truncated compact JSON with a
// trailing ellipsis and scalars as-is. Empty or falsy parameters show nothing.
func parametersPreview(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", false
	}
	switch trimmed[0] {
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return "", false
		}
		return truncate(buf.String(), PreviewLength) + "...", true
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if dec.Decode(&v) != nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, val != ""
	case json.Number:
		return val.String(), val.String() != "0"
	default:
		return "", false
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func joinNonEmpty(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
