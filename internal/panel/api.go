package panel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/rendis/n8nview/internal/diagram"
	"github.com/rendis/n8nview/internal/expressions"
	"github.com/rendis/n8nview/internal/flow"
	"github.com/rendis/n8nview/internal/logging"
	"github.com/rendis/n8nview/internal/session"
	"github.com/rendis/n8nview/internal/summary"
	"github.com/rendis/n8nview/pkg/schema"
)

// graphResponse is the display graph plus the ids an optional selection
// expression matched.
type graphResponse struct {
	*flow.Graph
	Selected    []string      `json:"selected,omitempty"`
	Diagnostics schema.Report `json:"diagnostics"`
}

// cardResponse is one rendered summary card.
type cardResponse struct {
	NodeID string `json:"node_id"`
	summary.Card
	Text string `json:"text"`
}

// session looks up the path's session, writing a 404 when it is missing.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.deps.Sessions.Get(r.PathValue("id"))
	if err != nil {
		writeViewError(w, err)
		return nil, false
	}
	return sess, true
}

// handleCreateSession starts a new session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.deps.Sessions.Create(r.Context())
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

// handleGetSession returns the session status.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	snap := sess.Snapshot()
	snap.Graph = nil
	writeJSON(w, http.StatusOK, snap)
}

// handleDeleteSession drops a session.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.deps.Sessions.Delete(id) {
		writeViewError(w, schema.NewErrorf(schema.ErrCodeNotFound, "session %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ok": "true", "session_id": id})
}

// handleLoad reads a workflow file from a multipart "file" field or from the
// raw body named by ?filename=.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ctx := logging.WithSessionID(r.Context(), sess.ID)
	r.Body = http.MaxBytesReader(w, r.Body, s.deps.MaxUploadBytes)

	filename, content, err := readUpload(r)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", tooBig.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read upload: %v", err))
		return
	}

	if err := sess.Load(ctx, filename, content); err != nil {
		var ve *schema.ViewError
		if !errors.As(err, &ve) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, statusForCode(ve.Code), map[string]any{
			"error":  ve,
			"status": sess.Status(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": sess.Status()})
}

// readUpload returns an empty filename when no file was chosen.
func readUpload(r *http.Request) (string, []byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil, nil
		}
		if err != nil {
			return "", nil, err
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", nil, err
		}
		return header.Filename, data, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, err
	}
	filename := r.URL.Query().Get("filename")
	if filename == "" && len(data) > 0 {
		filename = "workflow.json"
	}
	return filename, data, nil
}

// selection applies ?engine=&expr= to a copy of the session graph.
func (s *Server) selection(r *http.Request, sess *session.Session) (*flow.Graph, []string, error) {
	g := sess.Graph()
	expr := strings.TrimSpace(r.URL.Query().Get("expr"))
	if expr == "" {
		return g, nil, nil
	}
	if s.deps.Expressions == nil {
		return nil, nil, schema.NewError(schema.ErrCodeValidation, "node selection is disabled")
	}
	name := r.URL.Query().Get("engine")
	if name == "" {
		name = "expr"
	}
	engine, err := s.deps.Expressions.Get(name)
	if err != nil {
		return nil, nil, err
	}
	ids, err := expressions.Select(logging.WithSessionID(r.Context(), sess.ID), engine, expr, g)
	if err != nil {
		return nil, nil, err
	}
	g.Select(ids)
	return g, ids, nil
}

// handleGraph returns the display graph JSON.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	g, ids, err := s.selection(r, sess)
	if err != nil {
		writeViewError(w, err)
		return
	}
	if ids == nil && r.URL.Query().Get("expr") != "" {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, graphResponse{Graph: g, Selected: ids, Diagnostics: g.Diagnostics})
}

// handleConnect adds a manually drawn edge.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var body struct {
		Source       string `json:"source"`
		Target       string `json:"target"`
		SourceHandle string `json:"sourceHandle"`
		TargetHandle string `json:"targetHandle"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	edge, err := sess.Connect(r.Context(), body.Source, body.Target, body.SourceHandle, body.TargetHandle)
	if err != nil {
		writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, edge)
}

// handleRemoveEdge deletes an edge by id.
func (s *Server) handleRemoveEdge(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	edgeID := r.PathValue("edgeId")
	if err := sess.RemoveEdge(r.Context(), edgeID); err != nil {
		writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ok": "true", "edge_id": edgeID})
}

// handleMoveNode updates a node's canvas position.
func (s *Server) handleMoveNode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	nodeID := r.PathValue("nodeId")

	var body struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if body.X == nil || body.Y == nil {
		writeError(w, http.StatusBadRequest, "x and y are required")
		return
	}

	if err := sess.MoveNode(r.Context(), nodeID, *body.X, *body.Y); err != nil {
		writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flow.Point{X: *body.X, Y: *body.Y})
}

// handleDiagram renders the session graph, selection included.
func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(schema.FormatMermaid)
	}
	format, err := schema.ParseDiagramFormat(name)
	if err != nil {
		writeViewError(w, err)
		return
	}

	g, _, err := s.selection(r, sess)
	if err != nil {
		writeViewError(w, err)
		return
	}

	ctx := logging.WithSessionID(r.Context(), sess.ID)
	out, err := diagram.Render(ctx, g, format, s.deps.BinDir)
	if err != nil {
		s.deps.Logger.ErrorContext(ctx, "diagram render failed", "format", format, "error", err)
		writeViewError(w, err)
		return
	}

	w.Header().Set("Content-Type", diagram.ContentType(format))
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// handleCards returns the summary card of every node in display order.
func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	g := sess.Graph()
	cards := make([]cardResponse, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		card := summary.Render(n.Data)
		cards = append(cards, cardResponse{NodeID: n.ID, Card: card, Text: card.Text()})
	}
	writeJSON(w, http.StatusOK, cards)
}
