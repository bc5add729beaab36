package session

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/n8nview/internal/streaming"
	"github.com/rendis/n8nview/internal/validation"
	"github.com/rendis/n8nview/pkg/schema"
)

const sampleWorkflow = `{
  "name": "Route leads",
  "nodes": [
    {"id": "1", "name": "Start", "type": "n8n-nodes-base.manualTrigger", "position": [0, 0], "parameters": {}},
    {"id": "2", "name": "Check", "type": "n8n-nodes-base.if", "position": [200, 0],
     "parameters": {"conditions": {"combinator": "or", "conditions": []}}},
    {"id": "3", "name": "Save", "type": "n8n-nodes-base.googleSheets", "position": [400, 0],
     "parameters": {"documentId": {"cachedResultName": "Leads"}}}
  ],
  "connections": {
    "Start": {"main": [[{"node": "Check", "type": "main", "index": 0}]]},
    "Check": {"main": [[{"node": "Save", "type": "main", "index": 0}]]}
  }
}`

type fixture struct {
	manager *Manager
	hub     *streaming.MemoryHub
	logs    *bytes.Buffer
	clock   *fakeClock
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newFixture(t *testing.T, locale string, ttl time.Duration) *fixture {
	t.Helper()
	v, err := validation.NewJSONSchemaValidator()
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	hub := streaming.NewMemoryHub()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(Options{
		Validator: v,
		Hub:       hub,
		Logger:    slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
		Locale:    locale,
		TTL:       ttl,
		Now:       clock.Now,
	})
	return &fixture{manager: m, hub: hub, logs: logs, clock: clock}
}

func subscribe(t *testing.T, hub *streaming.MemoryHub, sessionID string) <-chan streaming.StreamEvent {
	t.Helper()
	ch, cancel, err := hub.Subscribe(context.Background(), streaming.EventFilter{SessionID: sessionID})
	require.NoError(t, err)
	t.Cleanup(cancel)
	return ch
}

func nextEvent(t *testing.T, ch <-chan streaming.StreamEvent) streaming.StreamEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return streaming.StreamEvent{}
	}
}

func TestNewSessionShowsPrompt(t *testing.T) {
	f := newFixture(t, "vi", 0)
	s := f.manager.Create(context.Background())

	st := s.Status()
	assert.Equal(t, StatusPrompt, st.Level)
	assert.Equal(t, "Tải file JSON", st.Text)
	assert.Equal(t, "No file selected", st.Filename)
	assert.Zero(t, st.Nodes)
	assert.Nil(t, s.Document())
}

func TestLoadSuccess(t *testing.T) {
	f := newFixture(t, "vi", 0)
	ctx := context.Background()
	s := f.manager.Create(ctx)
	events := subscribe(t, f.hub, s.ID)

	require.NoError(t, s.Load(ctx, "leads.json", []byte(sampleWorkflow)))

	st := s.Status()
	assert.Equal(t, StatusLoaded, st.Level)
	assert.Equal(t, "Loaded: leads.json (3 nodes, 2 edges)", st.Text)
	require.NotNil(t, s.Document())
	assert.Equal(t, "Route leads", s.Document().Name)

	g := s.Graph()
	assert.Equal(t, []string{"1", "2", "3"}, g.NodeIDs())
	assert.Equal(t, "e-1-2-0-0", g.Edges[0].ID)

	ev := nextEvent(t, events)
	assert.Equal(t, schema.EventGraphLoaded, ev.EventType)
	assert.Equal(t, s.ID, ev.SessionID)
	assert.Contains(t, f.logs.String(), `"file":"leads.json"`)
}

func TestLoadWithoutFileSetsSelectionMessage(t *testing.T) {
	f := newFixture(t, "vi", 0)
	ctx := context.Background()
	s := f.manager.Create(ctx)
	require.NoError(t, s.Load(ctx, "leads.json", []byte(sampleWorkflow)))

	err := s.Load(ctx, "", nil)
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeSelection))

	st := s.Status()
	assert.Equal(t, StatusError, st.Level)
	assert.Equal(t, "Chọn file JSON", st.Text)
	assert.Equal(t, "leads.json", st.Filename)
	assert.Len(t, s.Graph().Nodes, 3)
}

func TestLoadMalformedJSONOnFreshSession(t *testing.T) {
	f := newFixture(t, "vi", 0)
	ctx := context.Background()
	s := f.manager.Create(ctx)
	events := subscribe(t, f.hub, s.ID)

	err := s.Load(ctx, "broken.json", []byte(`{"nodes": [`))
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeParse))

	st := s.Status()
	assert.Equal(t, StatusError, st.Level)
	assert.Equal(t, "Lỗi: File JSON không hợp lệ", st.Text)
	assert.Equal(t, "broken.json", st.Filename)
	assert.Empty(t, s.Graph().Nodes)
	assert.Empty(t, s.Graph().Edges)

	ev := nextEvent(t, events)
	assert.Equal(t, schema.EventLoadFailed, ev.EventType)
	assert.Contains(t, f.logs.String(), `"level":"WARN"`)
}

func TestFailedLoadKeepsPreviousGraph(t *testing.T) {
	f := newFixture(t, "vi", 0)
	ctx := context.Background()
	s := f.manager.Create(ctx)
	require.NoError(t, s.Load(ctx, "leads.json", []byte(sampleWorkflow)))

	err := s.Load(ctx, "other.json", []byte(`{"nodes": []}`))
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeValidation))

	assert.Len(t, s.Graph().Nodes, 3)
	assert.Equal(t, "Route leads", s.Document().Name)
	st := s.Status()
	assert.Equal(t, "other.json", st.Filename)
	assert.Equal(t, "Lỗi: File JSON không hợp lệ", st.Text)
}

func TestLoadReplacesWholesale(t *testing.T) {
	f := newFixture(t, "vi", 0)
	ctx := context.Background()
	s := f.manager.Create(ctx)
	require.NoError(t, s.Load(ctx, "leads.json", []byte(sampleWorkflow)))
	_, err := s.Connect(ctx, "1", "3", "", "")
	require.NoError(t, err)

	require.NoError(t, s.Load(ctx, "empty.json", []byte(`{"nodes": [], "connections": {}}`)))
	st := s.Status()
	assert.Equal(t, "Loaded: empty.json (0 nodes, 0 edges)", st.Text)
}

func TestEnglishMessages(t *testing.T) {
	f := newFixture(t, "en", 0)
	ctx := context.Background()
	s := f.manager.Create(ctx)
	assert.Equal(t, "Upload a JSON file", s.Status().Text)

	_ = s.Load(ctx, "x.json", []byte("nope"))
	assert.Equal(t, "Error: invalid JSON file", s.Status().Text)
}

func TestUnknownLocaleFallsBack(t *testing.T) {
	assert.Equal(t, MessagesFor("vi"), MessagesFor("fr"))
}

func TestConnect(t *testing.T) {
	f := newFixture(t, "vi", 0)
	ctx := context.Background()
	s := f.manager.Create(ctx)
	require.NoError(t, s.Load(ctx, "leads.json", []byte(sampleWorkflow)))
	events := subscribe(t, f.hub, s.ID)

	edge, err := s.Connect(ctx, "1", "3", "output-0", "")
	require.NoError(t, err)
	assert.Equal(t, "e-1-3", edge.ID)
	assert.True(t, edge.Manual)
	assert.Nil(t, edge.Style)

	assert.Equal(t, "Loaded: leads.json (3 nodes, 3 edges)", s.Status().Text)
	ev := nextEvent(t, events)
	assert.Equal(t, schema.EventEdgeConnected, ev.EventType)

	assert.Equal(t, 2, s.Document().Connections.Len(), "document is not touched")
}

func TestConnectErrors(t *testing.T) {
	f := newFixture(t, "vi", 0)
	ctx := context.Background()
	s := f.manager.Create(ctx)
	require.NoError(t, s.Load(ctx, "leads.json", []byte(sampleWorkflow)))

	_, err := s.Connect(ctx, "", "3", "", "")
	assert.True(t, schema.IsCode(err, schema.ErrCodeValidation))

	_, err = s.Connect(ctx, "1", "99", "", "")
	assert.True(t, schema.IsCode(err, schema.ErrCodeNotFound))
	assert.Len(t, s.Graph().Edges, 2)
}

func TestRemoveEdge(t *testing.T) {
	f := newFixture(t, "vi", 0)
	ctx := context.Background()
	s := f.manager.Create(ctx)
	require.NoError(t, s.Load(ctx, "leads.json", []byte(sampleWorkflow)))

	require.NoError(t, s.RemoveEdge(ctx, "e-1-2-0-0"))
	assert.Len(t, s.Graph().Edges, 1)

	err := s.RemoveEdge(ctx, "e-1-2-0-0")
	assert.True(t, schema.IsCode(err, schema.ErrCodeNotFound))
}

func TestMoveNode(t *testing.T) {
	f := newFixture(t, "vi", 0)
	ctx := context.Background()
	s := f.manager.Create(ctx)
	require.NoError(t, s.Load(ctx, "leads.json", []byte(sampleWorkflow)))
	events := subscribe(t, f.hub, s.ID)

	require.NoError(t, s.MoveNode(ctx, "2", 10, -5))
	n, ok := s.Graph().Node("2")
	require.True(t, ok)
	assert.Equal(t, 10.0, n.Position.X)
	assert.Equal(t, -5.0, n.Position.Y)

	ev := nextEvent(t, events)
	assert.Equal(t, schema.EventNodeMoved, ev.EventType)
	assert.Equal(t, "2", ev.NodeID)

	err := s.MoveNode(ctx, "nope", 0, 0)
	assert.True(t, schema.IsCode(err, schema.ErrCodeNotFound))
}

func TestGraphReturnsCopy(t *testing.T) {
	f := newFixture(t, "vi", 0)
	ctx := context.Background()
	s := f.manager.Create(ctx)
	require.NoError(t, s.Load(ctx, "leads.json", []byte(sampleWorkflow)))

	g := s.Graph()
	g.Nodes[0].Position.X = 999
	g.Edges = g.Edges[:0]

	n, _ := s.Graph().Node("1")
	assert.Equal(t, 0.0, n.Position.X)
	assert.Len(t, s.Graph().Edges, 2)
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t, "vi", 0)
	ctx := context.Background()
	s := f.manager.Create(ctx)
	doc := `{"nodes": [{"id": "1", "name": "A", "type": "x"}],
	         "connections": {"Ghost": {"main": [[{"node": "A", "index": 0}]]}}}`
	require.NoError(t, s.Load(ctx, "ghost.json", []byte(doc)))

	snap := s.Snapshot()
	assert.Equal(t, s.ID, snap.ID)
	assert.True(t, snap.HasDocument)
	assert.Equal(t, "Loaded: ghost.json (1 nodes, 0 edges)", snap.Status.Text)
	require.Len(t, snap.Diagnostics.Warnings, 1)
	assert.Equal(t, schema.DiagUnknownSource, snap.Diagnostics.Warnings[0].Code)
}

func TestConcurrentMutations(t *testing.T) {
	f := newFixture(t, "vi", 0)
	ctx := context.Background()
	s := f.manager.Create(ctx)
	require.NoError(t, s.Load(ctx, "leads.json", []byte(sampleWorkflow)))

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			_ = s.MoveNode(ctx, "1", float64(i), 0)
			_, _ = s.Connect(ctx, "1", "2", "", "")
			_ = s.Status()
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	assert.Len(t, s.Graph().Edges, 10)
}
