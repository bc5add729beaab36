package flow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		nodeType string
		want     Category
	}{
		{"n8n-nodes-base.if", CategoryConditional},
		{"n8n-nodes-base.googleSheets", CategorySpreadsheet},
		{"n8n-nodes-base.gmail", CategoryEmail},
		{"n8n-nodes-base.webhook", CategoryGeneric},
		{"n8n-nodes-base.manualTrigger", CategoryGeneric},
		{"", CategoryGeneric},
		// "notify" contains "if".
		{"custom.notify", CategoryConditional},
		// Conditional wins over the later checks.
		{"gmail-if", CategoryConditional},
		{"googleSheets.gmail", CategorySpreadsheet},
		// Matching is case-sensitive.
		{"n8n-nodes-base.IF", CategoryGeneric},
		{"n8n-nodes-base.GoogleSheets", CategoryGeneric},
		{"n8n-nodes-base.Gmail", CategoryGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.nodeType, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.nodeType))
		})
	}
}

func TestCategoryBackground(t *testing.T) {
	assert.Equal(t, "#e6f3ff", CategoryConditional.Background())
	assert.Equal(t, "#e6ffe6", CategorySpreadsheet.Background())
	assert.Equal(t, "#ffe6e6", CategoryEmail.Background())
	assert.Equal(t, "#fff", CategoryGeneric.Background())
}

func TestCategoryMarshalText(t *testing.T) {
	data, err := json.Marshal(map[string]Category{"c": CategorySpreadsheet})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"c":"spreadsheet"}`, string(data))
}
