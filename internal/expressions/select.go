package expressions

import (
	"context"
	"errors"

	"github.com/rendis/n8nview/internal/flow"
	"github.com/rendis/n8nview/pkg/schema"
)

// Select compiles expression once and returns the ids of the nodes for which
// it holds, in graph order.
func Select(ctx context.Context, engine Engine, expression string, g *flow.Graph) ([]string, error) {
	if engine == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "no expression engine")
	}
	if g == nil {
		return []string{}, nil
	}

	match, err := engine.Compile(expression)
	if err != nil {
		return nil, err
	}

	matched := make([]string, 0)
	for _, n := range g.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := match(ctx, NodeScope(n))
		if err != nil {
			return nil, withNode(err, n.ID)
		}
		if ok {
			matched = append(matched, n.ID)
		}
	}
	return matched, nil
}

func withNode(err error, nodeID string) error {
	var ve *schema.ViewError
	if errors.As(err, &ve) && ve.NodeID == "" {
		return ve.WithNode(nodeID)
	}
	return err
}
