// gen-diagrams generates sample diagram outputs for README documentation.
// Run: go run ./cmd/gen-diagrams
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rendis/n8nview/internal/config"
	"github.com/rendis/n8nview/internal/diagram"
	"github.com/rendis/n8nview/internal/flow"
	"github.com/rendis/n8nview/internal/summary"
	"github.com/rendis/n8nview/internal/validation"
	"github.com/rendis/n8nview/pkg/schema"
)

// sample: webhook → if(qualified?) → sheets log / gmail follow-up, plus a
// dangling connection from a removed node.
const sample = `{
  "name": "Lead intake",
  "nodes": [
    {"id": "hook", "name": "New lead", "type": "n8n-nodes-base.webhook", "position": [0, 0],
     "parameters": {"path": "leads", "httpMethod": "POST"}},
    {"id": "check", "name": "Qualified?", "type": "n8n-nodes-base.if", "position": [220, 0],
     "parameters": {"conditions": {"combinator": "and", "conditions": [
       {"leftValue": "{{ $json.budget }}", "rightValue": 5000, "operator": {"type": "number", "operation": "gte"}}
     ]}}},
    {"id": "log", "name": "Log lead", "type": "n8n-nodes-base.googleSheets", "position": [440, -120],
     "parameters": {"documentId": {"cachedResultName": "Pipeline"}, "sheetName": {"cachedResultName": "Qualified"}}},
    {"id": "mail", "name": "Nurture mail", "type": "n8n-nodes-base.gmail", "position": [440, 120],
     "parameters": {"subject": "Thanks for reaching out"}}
  ],
  "connections": {
    "New lead": {"main": [[{"node": "Qualified?", "type": "main", "index": 0}]]},
    "Qualified?": {"main": [[{"node": "Log lead", "type": "main", "index": 0}], [{"node": "Nurture mail", "type": "main", "index": 0}]]},
    "Old filter": {"main": [[{"node": "Log lead", "type": "main", "index": 0}]]}
  }
}`

func main() {
	ctx := context.Background()

	v, err := validation.NewJSONSchemaValidator()
	if err != nil {
		fmt.Fprintf(os.Stderr, "validator error: %v\n", err)
		os.Exit(1)
	}
	doc, err := v.Parse([]byte(sample))
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
		os.Exit(1)
	}
	g := flow.Convert(doc)

	outDir := filepath.Join("docs", "assets")
	os.MkdirAll(outDir, 0o755)
	binDir := config.Defaults().BinDir

	// ASCII (mermaid-ascii with built-in fallback)
	ascii, err := diagram.Render(ctx, g, schema.FormatASCII, binDir)
	if err == nil {
		os.WriteFile(filepath.Join(outDir, "diagram-ascii.txt"), ascii, 0o644)
		fmt.Println("=== ASCII ===")
		fmt.Println(string(ascii))
	}

	// Mermaid
	mermaid, err := diagram.Render(ctx, g, schema.FormatMermaid, binDir)
	if err == nil {
		os.WriteFile(filepath.Join(outDir, "diagram-mermaid.md"), []byte("```mermaid\n"+string(mermaid)+"\n```\n"), 0o644)
		fmt.Println("=== Mermaid ===")
		fmt.Println(string(mermaid))
	}

	// Cards
	fmt.Println("=== Cards ===")
	for _, n := range g.Nodes {
		fmt.Println(summary.Render(n.Data).Text())
		fmt.Println()
	}

	// Image (PNG)
	png, imgErr := diagram.Render(ctx, g, schema.FormatPNG, binDir)
	if imgErr != nil {
		fmt.Fprintf(os.Stderr, "image error: %v\n", imgErr)
	} else {
		pngPath := filepath.Join(outDir, "diagram-sample.png")
		os.WriteFile(pngPath, png, 0o644)
		fmt.Printf("=== Image (PNG) ===\nWritten: %s (%d bytes)\n", pngPath, len(png))
	}
}
