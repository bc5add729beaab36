package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewViewServer(t *testing.T) {
	s := NewViewServer(ViewServerDeps{})
	require.NotNil(t, s)
	assert.NotNil(t, s.mcpServer)
	assert.NotNil(t, s.logger)
	assert.NotNil(t, s.converter)
}

func TestToolRegistration(t *testing.T) {
	s := NewViewServer(ViewServerDeps{})

	tools := s.mcpServer.ListTools()
	require.Len(t, tools, 4)

	expectedTools := []string{
		"n8nview.convert",
		"n8nview.diagram",
		"n8nview.summarize",
		"n8nview.select",
	}
	for _, name := range expectedTools {
		tool := s.mcpServer.GetTool(name)
		assert.NotNil(t, tool, "tool %s should be registered", name)
	}
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name        string
		toolName    string
		description string
	}{
		{"convert", "n8nview.convert", "Convert an n8n workflow into display nodes and edges"},
		{"diagram", "n8nview.diagram", "Draw an n8n workflow. Returns Mermaid, ASCII art, Graphviz DOT, SVG, or a PNG image"},
		{"summarize", "n8nview.summarize", "Render the summary card of each node of an n8n workflow"},
		{"select", "n8nview.select", "List the ids of the nodes matching a predicate"},
	}

	s := NewViewServer(ViewServerDeps{})

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tool := s.mcpServer.GetTool(tc.toolName)
			require.NotNil(t, tool)
			assert.Equal(t, tc.description, tool.Tool.Description)
			assert.Contains(t, tool.Tool.InputSchema.Required, "workflow")
		})
	}
}
