package panel

import (
	"net/http"

	"github.com/rendis/n8nview/internal/diagram"
	"github.com/rendis/n8nview/internal/logging"
	"github.com/rendis/n8nview/internal/session"
	"github.com/rendis/n8nview/internal/summary"
	"github.com/rendis/n8nview/pkg/schema"
)

// --- Page data types ---

type pageData struct {
	Title  string
	Active string
}

type indexData struct {
	pageData
	Prompt   string
	Sessions []string
}

type sessionData struct {
	pageData
	Snapshot session.Snapshot
	Cards    []cardView
	Mermaid  string
	Formats  []schema.DiagramFormat
	Engines  []string
	Messages session.Messages
}

// cardView pairs a card with the node it was rendered from.
type cardView struct {
	NodeID string
	summary.Card
}

// --- Page handlers ---

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "index.html", indexData{
		pageData: pageData{Title: "n8nview", Active: "index"},
		Prompt:   s.deps.Sessions.Messages().Prompt,
		Sessions: s.deps.Sessions.IDs(),
	})
}

// handleNewSessionPage creates a session from the index form and redirects
// to its canvas.
func (s *Server) handleNewSessionPage(w http.ResponseWriter, r *http.Request) {
	sess := s.deps.Sessions.Create(r.Context())
	http.Redirect(w, r, "/sessions/"+sess.ID, http.StatusSeeOther)
}

func (s *Server) handleSessionPage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := s.deps.Sessions.Get(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	ctx := logging.WithSessionID(r.Context(), id)

	snap := sess.Snapshot()
	mermaid := ""
	if model, err := diagram.Build(snap.Graph); err == nil {
		mermaid = diagram.RenderMermaid(model)
	} else {
		s.deps.Logger.WarnContext(ctx, "diagram build failed", "error", err)
	}

	var engines []string
	if s.deps.Expressions != nil {
		engines = s.deps.Expressions.Names()
	}

	s.renderPage(w, "session.html", sessionData{
		pageData: pageData{Title: snap.Status.Filename, Active: "session"},
		Snapshot: snap,
		Cards:    cardViews(snap),
		Mermaid:  mermaid,
		Formats:  schema.DiagramFormats,
		Engines:  engines,
		Messages: s.deps.Sessions.Messages(),
	})
}

func cardViews(snap session.Snapshot) []cardView {
	out := make([]cardView, 0, len(snap.Graph.Nodes))
	for _, n := range snap.Graph.Nodes {
		out = append(out, cardView{NodeID: n.ID, Card: summary.Render(n.Data)})
	}
	return out
}
