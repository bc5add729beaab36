// Package streaming fans session changes out to live viewers.
package streaming

import (
	"context"
	"errors"
)

// ErrHubClosed is returned by Subscribe once the hub has been closed.
var ErrHubClosed = errors.New("event hub closed")

// StreamEvent is a real-time event emitted when a session changes.
type StreamEvent struct {
	SessionID string `json:"session_id"`
	NodeID    string `json:"node_id,omitempty"`
	EventType string `json:"event_type"`
	Payload   any    `json:"payload,omitempty"`
}

// EventFilter specifies which events a subscriber wants to receive.
// An empty SessionID matches every session.
type EventFilter struct {
	SessionID  string   `json:"session_id,omitempty"`
	EventTypes []string `json:"event_types,omitempty"`
}

// EventHub provides pub/sub for real-time session events.
//
// CloseSession ends every subscription bound to one session, closing its
// channel; subscriptions to all sessions stay open.
type EventHub interface {
	Publish(ctx context.Context, event StreamEvent) error
	Subscribe(ctx context.Context, filter EventFilter) (<-chan StreamEvent, func(), error)
	CloseSession(sessionID string)
}
