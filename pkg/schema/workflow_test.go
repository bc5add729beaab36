package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderedDoc = `{
  "name": "Lead routing",
  "nodes": [
    {"id": "1", "name": "Zeta", "type": "n8n-nodes-base.set", "position": [10, 20], "parameters": {"b": 1, "a": 2}},
    {"id": "2", "name": "Alpha", "type": "n8n-nodes-base.gmail", "position": [30]}
  ],
  "connections": {
    "Zeta": {"main": [[{"node": "Alpha", "type": "main", "index": 0}]]},
    "Alpha": {"main": [[], [{"node": "Zeta"}]]}
  }
}`

func TestDocument_DecodeKeepsConnectionOrder(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(orderedDoc), &doc))

	assert.Equal(t, "Lead routing", doc.Name)
	require.Len(t, doc.Nodes, 2)
	require.NotNil(t, doc.Connections)

	var keys []string
	for pair := doc.Connections.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"Zeta", "Alpha"}, keys)
}

func TestDocument_ParametersVerbatim(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(orderedDoc), &doc))

	assert.JSONEq(t, `{"b": 1, "a": 2}`, string(doc.Nodes[0].Parameters))
	assert.Equal(t, `{"b": 1, "a": 2}`, string(doc.Nodes[0].Parameters), "key order must survive decoding")
	assert.Nil(t, doc.Nodes[1].Parameters)
}

func TestDocument_PositionDefaults(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(orderedDoc), &doc))

	assert.Equal(t, 10.0, doc.Nodes[0].Position.X())
	assert.Equal(t, 20.0, doc.Nodes[0].Position.Y())
	assert.Equal(t, 30.0, doc.Nodes[1].Position.X())
	assert.Equal(t, 0.0, doc.Nodes[1].Position.Y())
}

func TestDocument_MissingIndexDefaultsToZero(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(orderedDoc), &doc))

	alpha, ok := doc.Connections.Get("Alpha")
	require.True(t, ok)
	require.Len(t, alpha.Main, 2)
	assert.Empty(t, alpha.Main[0])
	require.Len(t, alpha.Main[1], 1)
	assert.Equal(t, ConnectionTarget{Node: "Zeta"}, alpha.Main[1][0])
}

func TestConnectionGroup_Lenient(t *testing.T) {
	tests := []struct {
		name  string
		input string
		slots int
	}{
		{"main missing", `{}`, 0},
		{"main not array", `{"main": "x"}`, 0},
		{"group not object", `42`, 0},
		{"slot not array keeps position", `{"main": [null, [{"node": "B"}]]}`, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g ConnectionGroup
			require.NoError(t, json.Unmarshal([]byte(tt.input), &g))
			assert.Len(t, g.Main, tt.slots)
		})
	}
}

func TestConnectionTarget_Malformed(t *testing.T) {
	var targets []ConnectionTarget
	require.NoError(t, json.Unmarshal([]byte(`[{"node": 5, "index": "x"}, "junk", {"node": "B", "index": 2}]`), &targets))
	require.Len(t, targets, 3)
	assert.Equal(t, "", targets[0].Node)
	assert.Equal(t, 0, targets[0].Index)
	assert.Equal(t, "", targets[1].Node)
	assert.Equal(t, ConnectionTarget{Node: "B", Index: 2}, targets[2])
}

func TestDocument_MarshalRoundTrip(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(orderedDoc), &doc))

	out, err := json.Marshal(doc)
	require.NoError(t, err)

	var again Document
	require.NoError(t, json.Unmarshal(out, &again))
	assert.Equal(t, doc.Name, again.Name)
	assert.Equal(t, len(doc.Nodes), len(again.Nodes))
	assert.Equal(t, doc.Connections.Len(), again.Connections.Len())
}
