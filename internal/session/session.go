// Package session holds the per-browser state of the viewer: the loaded
// document, the display graph derived from it and the status line.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rendis/n8nview/internal/flow"
	"github.com/rendis/n8nview/internal/logging"
	"github.com/rendis/n8nview/internal/streaming"
	"github.com/rendis/n8nview/internal/validation"
	"github.com/rendis/n8nview/pkg/schema"
)

// StatusLevel tells the UI how to style the status line.
type StatusLevel string

const (
	StatusPrompt StatusLevel = "prompt"
	StatusError  StatusLevel = "error"
	StatusLoaded StatusLevel = "loaded"
)

// Status is the one-line summary shown above the canvas.
type Status struct {
	Level    StatusLevel `json:"level"`
	Text     string      `json:"text"`
	Filename string      `json:"filename"`
	Nodes    int         `json:"nodes"`
	Edges    int         `json:"edges"`
}

// Snapshot is a consistent copy of a session's state.
type Snapshot struct {
	ID          string        `json:"id"`
	Status      Status        `json:"status"`
	Graph       *flow.Graph   `json:"graph"`
	Diagnostics schema.Report `json:"diagnostics"`
	HasDocument bool          `json:"has_document"`
	LastAccess  time.Time     `json:"last_access"`
}

// deps are the collaborators shared by every session of a Manager.
type deps struct {
	validator validation.Validator
	converter *flow.Converter
	hub       streaming.EventHub
	logger    *slog.Logger
	messages  Messages
	now       func() time.Time
}

// Session is one viewer's state. All methods are safe for concurrent use;
// mutations are serialized, so the last load to finish wins.
type Session struct {
	ID string

	deps *deps

	mu         sync.RWMutex
	filename   string
	doc        *schema.Document
	graph      *flow.Graph
	message    string // empty once a load succeeded
	lastAccess time.Time
}

func newSession(id string, d *deps) *Session {
	return &Session{
		ID:         id,
		deps:       d,
		filename:   d.messages.NoFile,
		graph:      flow.Convert(nil),
		message:    d.messages.Prompt,
		lastAccess: d.now(),
	}
}

// Load replaces the session's document with content. An empty filename is a
// selection error and changes nothing but the message. The filename is kept
// even when the content is rejected; a rejected file leaves the previous
// graph and document in place.
func (s *Session) Load(ctx context.Context, filename string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = s.deps.now()

	ctx = logging.WithSessionID(ctx, s.ID)
	if filename == "" {
		s.message = s.deps.messages.SelectFile
		return schema.NewError(schema.ErrCodeSelection, "no file selected")
	}

	s.filename = filename
	ctx = logging.WithFile(ctx, filename)

	doc, err := s.deps.validator.Parse(content)
	if err != nil {
		s.message = s.deps.messages.InvalidFile
		s.deps.logger.WarnContext(ctx, "workflow rejected", slog.String("error", err.Error()))
		s.publish(ctx, streaming.StreamEvent{
			EventType: schema.EventLoadFailed,
			Payload:   map[string]any{"filename": filename, "error": err.Error()},
		})
		return err
	}

	g := s.deps.converter.Convert(ctx, doc)
	s.doc = doc
	s.graph = g
	s.message = ""

	s.deps.logger.InfoContext(ctx, "workflow loaded",
		slog.Int("nodes", len(g.Nodes)),
		slog.Int("edges", len(g.Edges)),
		slog.Int("warnings", len(g.Diagnostics.Warnings)),
	)
	s.publish(ctx, streaming.StreamEvent{
		EventType: schema.EventGraphLoaded,
		Payload: map[string]any{
			"filename": filename,
			"nodes":    len(g.Nodes),
			"edges":    len(g.Edges),
			"warnings": len(g.Diagnostics.Warnings),
		},
	})
	return nil
}

// Connect appends a manually drawn edge. The document is not touched.
func (s *Session) Connect(ctx context.Context, source, target, sourceHandle, targetHandle string) (flow.DisplayEdge, error) {
	if source == "" || target == "" {
		return flow.DisplayEdge{}, schema.NewError(schema.ErrCodeValidation, "source and target are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = s.deps.now()

	for _, id := range []string{source, target} {
		if _, ok := s.graph.Node(id); !ok {
			return flow.DisplayEdge{}, schema.NewErrorf(schema.ErrCodeNotFound, "node %q not found", id).WithNode(id)
		}
	}

	edge := flow.ManualEdge(source, target, sourceHandle, targetHandle)
	s.graph.Edges = append(s.graph.Edges, edge)

	s.publish(logging.WithSessionID(ctx, s.ID), streaming.StreamEvent{
		EventType: schema.EventEdgeConnected,
		Payload:   edge,
	})
	return edge, nil
}

// RemoveEdge deletes every edge with the given id.
func (s *Session) RemoveEdge(ctx context.Context, edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = s.deps.now()

	kept := s.graph.Edges[:0]
	removed := 0
	for _, e := range s.graph.Edges {
		if e.ID == edgeID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.graph.Edges = kept
	if removed == 0 {
		return schema.NewErrorf(schema.ErrCodeNotFound, "edge %q not found", edgeID)
	}

	s.publish(logging.WithSessionID(ctx, s.ID), streaming.StreamEvent{
		EventType: schema.EventEdgeRemoved,
		Payload:   map[string]any{"id": edgeID},
	})
	return nil
}

// MoveNode records a node's new canvas position.
func (s *Session) MoveNode(ctx context.Context, nodeID string, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = s.deps.now()

	n, ok := s.graph.Node(nodeID)
	if !ok {
		return schema.NewErrorf(schema.ErrCodeNotFound, "node %q not found", nodeID).WithNode(nodeID)
	}
	n.Position = flow.Point{X: x, Y: y}

	s.publish(logging.WithNodeID(logging.WithSessionID(ctx, s.ID), nodeID), streaming.StreamEvent{
		NodeID:    nodeID,
		EventType: schema.EventNodeMoved,
		Payload:   n.Position,
	})
	return nil
}

// Status reports the status line: the pending message when there is one,
// otherwise the loaded file with node and edge counts.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	st := Status{
		Filename: s.filename,
		Nodes:    len(s.graph.Nodes),
		Edges:    len(s.graph.Edges),
	}
	switch s.message {
	case "":
		st.Level = StatusLoaded
		st.Text = fmt.Sprintf("Loaded: %s (%d nodes, %d edges)", s.filename, st.Nodes, st.Edges)
	case s.deps.messages.Prompt:
		st.Level = StatusPrompt
		st.Text = s.message
	default:
		st.Level = StatusError
		st.Text = s.message
	}
	return st
}

// Graph returns a copy of the display graph.
func (s *Session) Graph() *flow.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Clone()
}

// Document returns the last successfully loaded document, or nil.
func (s *Session) Document() *schema.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Snapshot returns status and graph taken under one lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g := s.graph.Clone()
	return Snapshot{
		ID:          s.ID,
		Status:      s.statusLocked(),
		Graph:       g,
		Diagnostics: g.Diagnostics,
		HasDocument: s.doc != nil,
		LastAccess:  s.lastAccess,
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastAccess = s.deps.now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccess
}

func (s *Session) publish(ctx context.Context, event streaming.StreamEvent) {
	if s.deps.hub == nil {
		return
	}
	event.SessionID = s.ID
	if err := s.deps.hub.Publish(ctx, event); err != nil {
		s.deps.logger.DebugContext(ctx, "event not published",
			slog.String("event", event.EventType),
			slog.String("error", err.Error()),
		)
	}
}
