package diagram

import (
	"context"

	"github.com/goccy/go-graphviz"
	"github.com/rendis/n8nview/internal/flow"
	"github.com/rendis/n8nview/pkg/schema"
)

// Render builds the diagram model for g and renders it in the requested
// format. binDir is searched for the optional mermaid-ascii binary.
func Render(ctx context.Context, g *flow.Graph, format schema.DiagramFormat, binDir string) ([]byte, error) {
	model, err := Build(g)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeRender, "build diagram").WithCause(err)
	}

	switch format {
	case schema.FormatMermaid:
		return []byte(RenderMermaid(model)), nil
	case schema.FormatASCII:
		return []byte(RenderASCIIAuto(ctx, model, binDir)), nil
	case schema.FormatDOT, schema.FormatSVG, schema.FormatPNG:
		out, err := RenderImage(ctx, model, graphvizFormat(format))
		if err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeRender, "render %s", format).WithCause(err)
		}
		return out, nil
	default:
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "unknown diagram format %q", format)
	}
}

// ContentType is the MIME type of a rendered format.
func ContentType(format schema.DiagramFormat) string {
	switch format {
	case schema.FormatPNG:
		return "image/png"
	case schema.FormatSVG:
		return "image/svg+xml"
	case schema.FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

func graphvizFormat(format schema.DiagramFormat) graphviz.Format {
	switch format {
	case schema.FormatSVG:
		return graphviz.SVG
	case schema.FormatDOT:
		return graphviz.XDOT
	default:
		return graphviz.PNG
	}
}
