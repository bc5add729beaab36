package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/n8nview/internal/expressions"
	"github.com/rendis/n8nview/internal/validation"
)

const sampleWorkflow = `{
  "name": "Invoices",
  "nodes": [
    {"id": "t", "name": "Trigger", "type": "n8n-nodes-base.scheduleTrigger", "position": [0, 0], "parameters": {"rule": {"interval": [{}]}}},
    {"id": "c", "name": "Paid?", "type": "n8n-nodes-base.if", "position": [200, 0],
     "parameters": {"conditions": {"combinator": "and", "conditions": [
       {"leftValue": "{{ $json.paid }}", "rightValue": "", "operator": {"type": "boolean", "operation": "true"}}
     ]}}},
    {"id": "s", "name": "Log", "type": "n8n-nodes-base.googleSheets", "position": [400, -100],
     "parameters": {"documentId": {"cachedResultName": "Ledger"}, "sheetName": {"cachedResultName": "2026"}}},
    {"id": "m", "name": "Remind", "type": "n8n-nodes-base.gmail", "position": [400, 100],
     "parameters": {"subject": "Invoice overdue"}}
  ],
  "connections": {
    "Trigger": {"main": [[{"node": "Paid?", "type": "main", "index": 0}]]},
    "Paid?": {"main": [[{"node": "Log", "type": "main", "index": 0}], [{"node": "Remind", "type": "main", "index": 0}]]},
    "Ghost": {"main": [[{"node": "Log", "type": "main", "index": 0}]]}
  }
}`

func newTestServer(t *testing.T) *ViewServer {
	t.Helper()
	v, err := validation.NewJSONSchemaValidator()
	require.NoError(t, err)
	reg, err := expressions.NewRegistry()
	require.NoError(t, err)
	return NewViewServer(ViewServerDeps{
		Validator:   v,
		Expressions: reg,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		BinDir:      t.TempDir(),
	})
}

// --- Helper ---

func buildRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: args,
		},
	}
}

// --- Tests ---

func TestConvertTool(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleConvert(context.Background(), buildRequest("n8nview.convert", map[string]any{
		"workflow": sampleWorkflow,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(t, result))

	var out struct {
		Title string `json:"title"`
		Nodes []struct {
			ID   string         `json:"id"`
			Data map[string]any `json:"data"`
		} `json:"nodes"`
		Edges []struct {
			ID string `json:"id"`
		} `json:"edges"`
		Diagnostics struct {
			Warnings []struct {
				Code string `json:"code"`
			} `json:"warnings"`
		} `json:"diagnostics"`
	}
	unmarshalResult(t, result, &out)

	assert.Equal(t, "Invoices", out.Title)
	require.Len(t, out.Nodes, 4)
	assert.Equal(t, "Ledger", out.Nodes[2].Data["documentId"])
	require.Len(t, out.Edges, 3)
	assert.Equal(t, "e-c-m-1-0", out.Edges[2].ID)
	require.Len(t, out.Diagnostics.Warnings, 1)
	assert.Equal(t, "UNKNOWN_SOURCE", out.Diagnostics.Warnings[0].Code)
}

func TestConvertToolRejectsInvalidWorkflow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing", map[string]any{}},
		{"malformed", map[string]any{"workflow": `{"nodes": [`}},
		{"no connections", map[string]any{"workflow": `{"nodes": []}`}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := s.handleConvert(ctx, buildRequest("n8nview.convert", tc.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
}

func TestDiagramToolMermaid(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleDiagram(context.Background(), buildRequest("n8nview.diagram", map[string]any{
		"workflow": sampleWorkflow,
		"format":   "mermaid",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := extractText(t, result)
	assert.True(t, strings.HasPrefix(text, "graph TD"))
	assert.Contains(t, text, "|true|")
	assert.Contains(t, text, "|false|")
}

func TestDiagramToolHighlightsSelection(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleDiagram(context.Background(), buildRequest("n8nview.diagram", map[string]any{
		"workflow":   sampleWorkflow,
		"format":     "ascii",
		"expression": `.category == "email"`,
		"engine":     "jq",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(t, result))
	assert.Contains(t, extractText(t, result), "Remind")
}

func TestDiagramToolPNG(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleDiagram(context.Background(), buildRequest("n8nview.diagram", map[string]any{
		"workflow": sampleWorkflow,
		"format":   "png",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Len(t, result.Content, 2)

	img, ok := result.Content[1].(mcp.ImageContent)
	require.True(t, ok)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.NotEmpty(t, img.Data)
}

func TestDiagramToolBadFormat(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleDiagram(context.Background(), buildRequest("n8nview.diagram", map[string]any{
		"workflow": sampleWorkflow,
		"format":   "gif",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestSummarizeTool(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleSummarize(context.Background(), buildRequest("n8nview.summarize", map[string]any{
		"workflow": sampleWorkflow,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out struct {
		Cards []struct {
			NodeID     string `json:"node_id"`
			Heading    string `json:"heading"`
			Background string `json:"background"`
			Text       string `json:"text"`
		} `json:"cards"`
	}
	unmarshalResult(t, result, &out)
	require.Len(t, out.Cards, 4)
	assert.Equal(t, "Conditions (AND):", out.Cards[1].Heading)
	assert.Contains(t, out.Cards[1].Text, "$json.paid TRUE")
	assert.Equal(t, "#e6ffe6", out.Cards[2].Background)
	assert.Contains(t, out.Cards[3].Text, "Email Subject: Invoice overdue")
}

func TestSummarizeToolSingleNode(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	result, err := s.handleSummarize(ctx, buildRequest("n8nview.summarize", map[string]any{
		"workflow": sampleWorkflow,
		"node_id":  "s",
	}))
	require.NoError(t, err)
	var out struct {
		Cards []struct {
			NodeID string `json:"node_id"`
		} `json:"cards"`
	}
	unmarshalResult(t, result, &out)
	require.Len(t, out.Cards, 1)
	assert.Equal(t, "s", out.Cards[0].NodeID)

	result, err = s.handleSummarize(ctx, buildRequest("n8nview.summarize", map[string]any{
		"workflow": sampleWorkflow,
		"node_id":  "zzz",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestSelectTool(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		engine     string
		expression string
		want       []string
	}{
		{"expr", `position.x >= 400`, []string{"s", "m"}},
		{"cel", `node.category == "conditional"`, []string{"c"}},
		{"jq", `.name | startswith("R")`, []string{"m"}},
	}
	for _, tc := range tests {
		t.Run(tc.engine, func(t *testing.T) {
			result, err := s.handleSelect(ctx, buildRequest("n8nview.select", map[string]any{
				"workflow":   sampleWorkflow,
				"expression": tc.expression,
				"engine":     tc.engine,
			}))
			require.NoError(t, err)
			require.False(t, result.IsError, extractText(t, result))

			var out struct {
				NodeIDs []string `json:"node_ids"`
			}
			unmarshalResult(t, result, &out)
			assert.Equal(t, tc.want, out.NodeIDs)
		})
	}
}

func TestSelectToolErrors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	result, err := s.handleSelect(ctx, buildRequest("n8nview.select", map[string]any{
		"workflow": sampleWorkflow,
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = s.handleSelect(ctx, buildRequest("n8nview.select", map[string]any{
		"workflow":   sampleWorkflow,
		"expression": `name`,
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError, "non-boolean predicate")

	result, err = s.handleSelect(ctx, buildRequest("n8nview.select", map[string]any{
		"workflow":   sampleWorkflow,
		"expression": `true`,
		"engine":     "lua",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// --- Test helpers ---

func extractText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	return mcp.GetTextFromContent(result.Content[0])
}

func unmarshalResult(t *testing.T, result *mcp.CallToolResult, target any) {
	t.Helper()
	text := extractText(t, result)
	require.NoError(t, json.Unmarshal([]byte(text), target))
}
