package summary

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/rendis/n8nview/internal/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderConditions(t *testing.T) {
	op := &flow.Operator{Type: "number", Operation: "gt"}
	data := flow.NodeData{
		Label:    "Check total",
		NodeType: "n8n-nodes-base.if",
		Payload: flow.ConditionalPayload{
			Combinator: "and",
			Conditions: []flow.Condition{
				{LeftValue: "={{ $json.total }}", RightValue: json.Number("100"), Operator: op},
				{LeftValue: "={{ $json.ok }}", RightValue: true, Operator: &flow.Operator{Operation: "true"}},
			},
		},
	}

	card := Render(data)
	assert.Equal(t, "Check total", card.Title)
	assert.Equal(t, "Conditions (AND):", card.Heading)
	require.Len(t, card.Lines, 2)
	assert.Equal(t, &ConditionLine{Left: "=$json.total", Operation: "GT", Right: "100"}, card.Lines[0].Condition)
	assert.Equal(t, "=$json.total GT 100", card.Lines[0].String())
	assert.Equal(t, "=$json.ok TRUE", card.Lines[1].String())
	assert.Equal(t, "Type: n8n-nodes-base.if", card.Footer)
	assert.Equal(t, "#e6f3ff", card.Background)
	assert.Equal(t, flow.CategoryConditional, card.Category)
}

func TestRenderEmptyConditionsShowsNoBody(t *testing.T) {
	card := Render(flow.NodeData{
		Label:    "Check",
		NodeType: "n8n-nodes-base.if",
		Payload:  flow.ConditionalPayload{Combinator: "and", Conditions: []flow.Condition{}},
	})
	assert.Empty(t, card.Heading)
	assert.Empty(t, card.Lines)
	assert.Equal(t, "Type: n8n-nodes-base.if", card.Footer)
}

func TestRenderSpreadsheet(t *testing.T) {
	card := Render(flow.NodeData{
		Label:    "Append",
		NodeType: "n8n-nodes-base.googleSheets",
		Payload:  flow.SpreadsheetPayload{DocumentID: "Leads", SheetName: "N/A"},
	})
	require.Len(t, card.Lines, 2)
	assert.Equal(t, "Sheet: Leads", card.Lines[0].String())
	assert.Equal(t, "Tab: N/A", card.Lines[1].String())
	assert.Equal(t, "#e6ffe6", card.Background)

	card = Render(flow.NodeData{
		NodeType: "n8n-nodes-base.googleSheets",
		Payload:  flow.SpreadsheetPayload{DocumentID: "Leads"},
	})
	require.Len(t, card.Lines, 1)
}

func TestRenderEmail(t *testing.T) {
	card := Render(flow.NodeData{
		Label:    "Mail",
		NodeType: "n8n-nodes-base.gmail",
		Payload:  flow.EmailPayload{Subject: "N/A"},
	})
	require.Len(t, card.Lines, 1)
	assert.Equal(t, "Email Subject: N/A", card.Lines[0].String())
	assert.Equal(t, "#ffe6e6", card.Background)
}

func TestRenderParameters(t *testing.T) {
	long := `{"url": "https://example.com/api/v1/items", "method": "POST", "sendBody": true}`

	tests := []struct {
		name   string
		params string
		want   string
		none   bool
	}{
		{"empty object", `{}`, "{}...", false},
		{"short object", `{"path": "x"}`, `{"path":"x"}...`, false},
		{"long object truncated", long, `{"url":"https://example.com/api/v1/items","method"...`, false},
		{"array", `[1, 2]`, "[1,2]...", false},
		{"string scalar", `"raw"`, "raw", false},
		{"number scalar", `7`, "7", false},
		{"empty string", `""`, "", true},
		{"boolean", `true`, "", true},
		{"absent", ``, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := Render(flow.NodeData{
				Label:    "Node",
				NodeType: "n8n-nodes-base.httpRequest",
				Payload:  flow.GenericPayload{Parameters: json.RawMessage(tt.params)},
			})
			if tt.none {
				assert.Empty(t, card.Lines)
				return
			}
			require.Len(t, card.Lines, 1)
			assert.Equal(t, "Parameters", card.Lines[0].Label)
			assert.Equal(t, tt.want, card.Lines[0].Value)
		})
	}
}

func TestRenderBackgroundFollowsNodeType(t *testing.T) {
	// The background comes from the node type even when the payload disagrees.
	card := Render(flow.NodeData{
		NodeType: "custom.notify",
		Payload:  flow.GenericPayload{Parameters: json.RawMessage(`{}`)},
	})
	assert.Equal(t, "#e6f3ff", card.Background)
	assert.Equal(t, "Parameters: {}...", card.Lines[0].String())
}

func TestCardText(t *testing.T) {
	card := Render(flow.NodeData{
		Label:    "Check",
		NodeType: "n8n-nodes-base.if",
		Payload: flow.ConditionalPayload{
			Combinator: "or",
			Conditions: []flow.Condition{
				{LeftValue: "{{ $json.a }}", RightValue: "x", Operator: &flow.Operator{Operation: "equals"}},
			},
		},
	})

	want := strings.Join([]string{
		"Check",
		"Conditions (OR):",
		"  $json.a EQUALS x",
		"Type: n8n-nodes-base.if",
	}, "\n")
	assert.Equal(t, want, card.Text())
	assert.Equal(t, []string{"Conditions (OR):", "$json.a EQUALS x"}, card.BodyLines())
}
