package streaming

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
)

const defaultChannelBuffer = 64

type subscriber struct {
	ch    chan StreamEvent
	types []string
}

func (s *subscriber) wants(eventType string) bool {
	return len(s.types) == 0 || slices.Contains(s.types, eventType)
}

// MemoryHub is an in-memory EventHub. Subscribers are indexed by session so a
// publish only visits the viewers of that session plus the catch-all ones.
// A subscriber channel is closed exactly once, by whoever removes it.
type MemoryHub struct {
	mu       sync.RWMutex
	sessions map[string]map[uint64]*subscriber // "" holds catch-all subscribers
	closed   bool

	seq     atomic.Uint64
	dropped atomic.Uint64
}

// NewMemoryHub creates an empty hub.
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{sessions: make(map[string]map[uint64]*subscriber)}
}

// Publish delivers event to matching subscribers without blocking. Events for
// a subscriber whose buffer is full are dropped and counted.
func (h *MemoryHub) Publish(ctx context.Context, event StreamEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	h.deliver(h.sessions[event.SessionID], event)
	if event.SessionID != "" {
		h.deliver(h.sessions[""], event)
	}
	return nil
}

func (h *MemoryHub) deliver(subs map[uint64]*subscriber, event StreamEvent) {
	for _, sub := range subs {
		if !sub.wants(event.EventType) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribe registers a subscriber. The returned cancel func removes it and
// closes the channel; calling it again, or after the hub closed the channel,
// does nothing.
func (h *MemoryHub) Subscribe(ctx context.Context, filter EventFilter) (<-chan StreamEvent, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	id := h.seq.Add(1)
	sub := &subscriber{
		ch:    make(chan StreamEvent, defaultChannelBuffer),
		types: slices.Clone(filter.EventTypes),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, nil, ErrHubClosed
	}
	subs, ok := h.sessions[filter.SessionID]
	if !ok {
		subs = make(map[uint64]*subscriber)
		h.sessions[filter.SessionID] = subs
	}
	subs[id] = sub
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.sessions[filter.SessionID]
		if _, ok := subs[id]; !ok {
			return
		}
		delete(subs, id)
		if len(subs) == 0 {
			delete(h.sessions, filter.SessionID)
		}
		close(sub.ch)
	}
	return sub.ch, cancel, nil
}

// CloseSession closes the channels of every subscriber bound to sessionID.
func (h *MemoryHub) CloseSession(sessionID string) {
	if sessionID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.sessions[sessionID] {
		close(sub.ch)
	}
	delete(h.sessions, sessionID)
}

// Close ends every subscription and rejects new ones. Open event streams see
// their channel close and return, which lets an HTTP server drain.
func (h *MemoryHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, subs := range h.sessions {
		for _, sub := range subs {
			close(sub.ch)
		}
	}
	clear(h.sessions)
}

// Subscribers returns the number of live subscriptions.
func (h *MemoryHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, subs := range h.sessions {
		n += len(subs)
	}
	return n
}

// Dropped returns how many events were discarded for slow subscribers.
func (h *MemoryHub) Dropped() uint64 {
	return h.dropped.Load()
}

var _ EventHub = (*MemoryHub)(nil)
