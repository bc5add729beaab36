package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rendis/n8nview/internal/flow"
	"github.com/rendis/n8nview/internal/streaming"
	"github.com/rendis/n8nview/internal/validation"
	"github.com/rendis/n8nview/pkg/schema"
)

// Options configures a Manager.
type Options struct {
	Validator validation.Validator // required
	Hub       streaming.EventHub   // optional
	Logger    *slog.Logger
	Locale    string
	TTL       time.Duration // zero disables expiry
	Now       func() time.Time
}

// Manager owns the live sessions of a server process.
type Manager struct {
	deps *deps
	ttl  time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty Manager.
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		deps: &deps{
			validator: opts.Validator,
			converter: flow.NewConverter(logger),
			hub:       opts.Hub,
			logger:    logger,
			messages:  MessagesFor(opts.Locale),
			now:       now,
		},
		ttl:      opts.TTL,
		sessions: make(map[string]*Session),
	}
}

// Messages returns the catalog the manager's sessions use.
func (m *Manager) Messages() Messages {
	return m.deps.messages
}

// Create starts a new session in the prompt state.
func (m *Manager) Create(ctx context.Context) *Session {
	s := newSession(uuid.NewString(), m.deps)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.deps.logger.InfoContext(ctx, "session created", slog.String("session_id", s.ID))
	s.publish(ctx, streaming.StreamEvent{EventType: schema.EventSessionCreated})
	return s
}

// Get returns the session with id and marks it as used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "session %q not found", id)
	}
	s.touch()
	return s, nil
}

// Delete drops a session and ends its event streams. It reports whether the
// session existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok && m.deps.hub != nil {
		m.deps.hub.CloseSession(id)
	}
	return ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs returns the live session ids, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Expire removes every session idle for longer than the TTL and returns
// their ids.
func (m *Manager) Expire(ctx context.Context) []string {
	if m.ttl <= 0 {
		return nil
	}
	cutoff := m.deps.now().Add(-m.ttl)

	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	ids := make([]string, 0, len(expired))
	for _, s := range expired {
		ids = append(ids, s.ID)
		s.publish(ctx, streaming.StreamEvent{EventType: schema.EventSessionExpired})
		if m.deps.hub != nil {
			m.deps.hub.CloseSession(s.ID)
		}
	}
	sort.Strings(ids)
	return ids
}
