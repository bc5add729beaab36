// Package panel serves the browser viewer: upload a workflow export, look at
// its diagram and node cards, and follow session changes over SSE.
package panel

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/rendis/n8nview/internal/expressions"
	"github.com/rendis/n8nview/internal/session"
	"github.com/rendis/n8nview/internal/streaming"
)

//go:embed templates static
var content embed.FS

// DefaultMaxUploadBytes caps workflow uploads when Deps leaves it unset.
const DefaultMaxUploadBytes = 10 << 20

// Deps holds the dependencies for the panel server.
type Deps struct {
	Sessions       *session.Manager
	Expressions    *expressions.Registry
	Hub            streaming.EventHub
	Logger         *slog.Logger
	BinDir         string // where the optional mermaid-ascii binary lives
	MaxUploadBytes int64
}

// Server serves the viewer pages and the JSON API behind them.
type Server struct {
	deps  Deps
	pages map[string]*template.Template
}

// NewServer creates a Server with parsed templates.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = DefaultMaxUploadBytes
	}

	funcMap := template.FuncMap{
		"json":        toJSON,
		"timeAgo":     timeAgo,
		"statusClass": statusClass,
		"truncate":    truncate,
	}

	// Shared layout and partials.
	base := template.Must(
		template.New("").Funcs(funcMap).ParseFS(content,
			"templates/base.html",
			"templates/partials/*.html",
		),
	)

	// Each page clones the shared set so its {{define "content"}} stays local.
	pageFiles := []string{
		"index.html",
		"session.html",
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, pf := range pageFiles {
		clone := template.Must(base.Clone())
		pages[pf] = template.Must(clone.ParseFS(content, "templates/"+pf))
	}

	return &Server{
		deps:  deps,
		pages: pages,
	}
}

// Handler returns the HTTP handler for the panel routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	staticFS, _ := fs.Sub(content, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Pages.
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /sessions", s.handleNewSessionPage)
	mux.HandleFunc("GET /sessions/{id}", s.handleSessionPage)

	// SSE.
	mux.HandleFunc("GET /sse/sessions/{id}", s.handleSSESession)

	// API.
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/load", s.handleLoad)
	mux.HandleFunc("GET /api/sessions/{id}/graph", s.handleGraph)
	mux.HandleFunc("POST /api/sessions/{id}/edges", s.handleConnect)
	mux.HandleFunc("DELETE /api/sessions/{id}/edges/{edgeId}", s.handleRemoveEdge)
	mux.HandleFunc("PATCH /api/sessions/{id}/nodes/{nodeId}", s.handleMoveNode)
	mux.HandleFunc("GET /api/sessions/{id}/diagram", s.handleDiagram)
	mux.HandleFunc("GET /api/sessions/{id}/cards", s.handleCards)

	return mux
}

// renderPage executes a page template by name.
func (s *Server) renderPage(w http.ResponseWriter, page string, data any) {
	tmpl, ok := s.pages[page]
	if !ok {
		s.deps.Logger.Error("template not found", "page", page)
		http.Error(w, fmt.Sprintf("template %q not found", page), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		s.deps.Logger.Error("template render error", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
