package schema

// Event types published on the session stream.
const (
	EventSessionCreated = "session_created"
	EventSessionExpired = "session_expired"

	EventGraphLoaded = "graph_loaded"
	EventLoadFailed  = "load_failed"

	EventEdgeConnected = "edge_connected"
	EventEdgeRemoved   = "edge_removed"
	EventNodeMoved     = "node_moved"
)

// DiagramFormat enumerates the renderers a graph can be exported through.
type DiagramFormat string

const (
	FormatMermaid DiagramFormat = "mermaid"
	FormatASCII   DiagramFormat = "ascii"
	FormatDOT     DiagramFormat = "dot"
	FormatSVG     DiagramFormat = "svg"
	FormatPNG     DiagramFormat = "png"
)

// DiagramFormats lists every supported format, in display order.
var DiagramFormats = []DiagramFormat{FormatMermaid, FormatASCII, FormatDOT, FormatSVG, FormatPNG}

// ParseDiagramFormat validates a user-supplied format name.
func ParseDiagramFormat(s string) (DiagramFormat, error) {
	for _, f := range DiagramFormats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", NewErrorf(ErrCodeValidation, "unknown diagram format %q: must be one of mermaid, ascii, dot, svg, png", s)
}

// Binary reports whether the rendered output is not text.
func (f DiagramFormat) Binary() bool {
	return f == FormatPNG
}
