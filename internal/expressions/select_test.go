package expressions

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rendis/n8nview/internal/flow"
	"github.com/rendis/n8nview/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph(t *testing.T) *flow.Graph {
	t.Helper()
	var doc schema.Document
	require.NoError(t, json.Unmarshal([]byte(`{
	  "nodes": [
	    {"id":"w","name":"Webhook","type":"n8n-nodes-base.webhook","position":[0,0],"parameters":{"path":"lead","httpMethod":"POST"}},
	    {"id":"c","name":"Check","type":"n8n-nodes-base.if","position":[200,0]},
	    {"id":"s","name":"Append Row","type":"n8n-nodes-base.googleSheets","position":[400,0],
	     "parameters":{"documentId":{"cachedResultName":"Leads"}}},
	    {"id":"m","name":"Notify","type":"n8n-nodes-base.gmail","position":[600,0],"parameters":{"subject":"Hi"}}
	  ],
	  "connections": {}
	}`), &doc))
	return flow.Convert(&doc)
}

func TestNodeScope(t *testing.T) {
	g := sampleGraph(t)

	scope := NodeScope(g.Nodes[0])
	assert.Equal(t, "w", scope["id"])
	assert.Equal(t, "Webhook", scope["name"])
	assert.Equal(t, "n8n-nodes-base.webhook", scope["type"])
	assert.Equal(t, "generic", scope["category"])
	assert.Equal(t, map[string]any{"x": 0.0, "y": 0.0}, scope["position"])
	assert.Equal(t, map[string]any{"path": "lead", "httpMethod": "POST"}, scope["parameters"])

	scope = NodeScope(g.Nodes[2])
	data := scope["data"].(map[string]any)
	assert.Equal(t, "Leads", data["documentId"])
	assert.Equal(t, "spreadsheet", data["category"])
	assert.Equal(t, map[string]any{}, scope["parameters"])
}

func TestSelectAcrossEngines(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	g := sampleGraph(t)
	ctx := context.Background()

	tests := []struct {
		engine string
		expr   string
		want   []string
	}{
		{"cel", `node.category == "email" || node.category == "spreadsheet"`, []string{"s", "m"}},
		{"expr", `position.x >= 200 && category != "email"`, []string{"c", "s"}},
		{"jq", `.parameters.httpMethod == "POST"`, []string{"w"}},
		{"jq", `.id == "w", .category == "conditional"`, []string{"w", "c"}},
		{"jq", `.category == "nothing"`, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.engine+" "+tt.expr, func(t *testing.T) {
			e, err := r.Get(tt.engine)
			require.NoError(t, err)
			ids, err := Select(ctx, e, tt.expr, g)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestSelectNonBoolean(t *testing.T) {
	g := sampleGraph(t)

	_, err := Select(context.Background(), NewGoJQEngine(), `.name`, g)
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeExpression))

	var ve *schema.ViewError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "w", ve.NodeID)
}

func TestSelectEvaluationErrorCarriesNode(t *testing.T) {
	g := sampleGraph(t)

	_, err := Select(context.Background(), NewGoJQEngine(), `.name | tonumber > 1`, g)
	var ve *schema.ViewError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, schema.ErrCodeExpression, ve.Code)
	assert.Equal(t, "w", ve.NodeID)
}

func TestSelectEdgeCases(t *testing.T) {
	ids, err := Select(context.Background(), NewExprEngine(), "true", nil)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = Select(context.Background(), nil, "true", sampleGraph(t))
	assert.True(t, schema.IsCode(err, schema.ErrCodeValidation))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Select(ctx, NewExprEngine(), "true", sampleGraph(t))
	assert.ErrorIs(t, err, context.Canceled)
}
