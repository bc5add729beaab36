package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rendis/n8nview/internal/diagram"
	"github.com/rendis/n8nview/internal/expressions"
	"github.com/rendis/n8nview/internal/flow"
	"github.com/rendis/n8nview/internal/summary"
	"github.com/rendis/n8nview/pkg/schema"
)

// handleConvert returns the display graph of a workflow.
func (s *ViewServer) handleConvert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, errResult := s.loadGraph(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	return marshalResult(map[string]any{
		"title":       g.Title,
		"nodes":       g.Nodes,
		"edges":       g.Edges,
		"diagnostics": g.Diagnostics,
	})
}

// handleDiagram renders a workflow in the requested format.
func (s *ViewServer) handleDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("format")
	if err != nil {
		return mcp.NewToolResultError("format is required"), nil
	}
	format, err := schema.ParseDiagramFormat(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	g, errResult := s.loadGraph(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	if expression := req.GetString("expression", ""); expression != "" {
		ids, selErr := s.selectNodes(ctx, req.GetString("engine", "expr"), expression, g)
		if selErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("selection failed: %v", selErr)), nil
		}
		g.Select(ids)
	}

	out, renderErr := diagram.Render(ctx, g, format, s.binDir)
	if renderErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("diagram render failed: %v", renderErr)), nil
	}
	if format.Binary() {
		encoded := base64.StdEncoding.EncodeToString(out)
		return mcp.NewToolResultImage(g.Title, encoded, diagram.ContentType(format)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// cardResult is one summarized node.
type cardResult struct {
	NodeID string `json:"node_id"`
	summary.Card
	Text string `json:"text"`
}

// handleSummarize renders the summary cards of a workflow.
func (s *ViewServer) handleSummarize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, errResult := s.loadGraph(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	nodeID := req.GetString("node_id", "")
	cards := make([]cardResult, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if nodeID != "" && n.ID != nodeID {
			continue
		}
		card := summary.Render(n.Data)
		cards = append(cards, cardResult{NodeID: n.ID, Card: card, Text: card.Text()})
	}
	if nodeID != "" && len(cards) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("node %q not found", nodeID)), nil
	}
	return marshalResult(map[string]any{"cards": cards})
}

// handleSelect returns the ids of the nodes a predicate matches.
func (s *ViewServer) handleSelect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expression, err := req.RequireString("expression")
	if err != nil {
		return mcp.NewToolResultError("expression is required"), nil
	}

	g, errResult := s.loadGraph(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	engine := req.GetString("engine", "expr")
	ids, selErr := s.selectNodes(ctx, engine, expression, g)
	if selErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("selection failed: %v", selErr)), nil
	}
	return marshalResult(map[string]any{"engine": engine, "node_ids": ids})
}

// --- Helpers ---

// loadGraph parses the workflow argument and converts it. A non-nil result
// is the error to hand back to the client.
func (s *ViewServer) loadGraph(ctx context.Context, req mcp.CallToolRequest) (*flow.Graph, *mcp.CallToolResult) {
	raw, err := req.RequireString("workflow")
	if err != nil {
		return nil, mcp.NewToolResultError("workflow is required")
	}
	if s.validator == nil {
		return nil, mcp.NewToolResultError("workflow validation is not configured")
	}

	doc, err := s.validator.Parse([]byte(raw))
	if err != nil {
		s.logger.WarnContext(ctx, "workflow rejected",
			slog.String("tool", req.Params.Name),
			slog.String("error", err.Error()),
		)
		return nil, mcp.NewToolResultError(fmt.Sprintf("invalid workflow: %v", err))
	}
	return s.converter.Convert(ctx, doc), nil
}

func (s *ViewServer) selectNodes(ctx context.Context, engineName, expression string, g *flow.Graph) ([]string, error) {
	if s.expressions == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "expression engines are not configured")
	}
	engine, err := s.expressions.Get(engineName)
	if err != nil {
		return nil, err
	}
	return expressions.Select(ctx, engine, expression, g)
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
