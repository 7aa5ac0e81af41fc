// Package sse pushes per-session change notifications to open browser tabs.
package sse

import (
	"time"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventSessionUpdated fires after a login or registration writes the session.
	// It is also sent to the browser ID a login replaced, so open tabs follow.
	EventSessionUpdated EventType = "session.updated"
	// EventSessionCleared fires after logout or an expired token clears the session.
	EventSessionCleared EventType = "session.cleared"
	// EventListChanged fires after a mutation so other tabs of the same
	// session can refetch the named list.
	EventListChanged EventType = "list.changed"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// SessionID restricts delivery to one browser session. Empty means all.
	SessionID string `json:"-"`
}

// SessionEventData is the payload of session events. It never carries the token.
type SessionEventData struct {
	Authenticated bool   `json:"authenticated"`
	Role          string `json:"role,omitempty"`
	Name          string `json:"name,omitempty"`
}

// ListChangedEventData names the list a page should refetch.
type ListChangedEventData struct {
	List string `json:"list"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewSessionUpdatedEvent builds the event for a written session.
func NewSessionUpdatedEvent(sessionID, role, name string) Event {
	return Event{
		Type:      EventSessionUpdated,
		SessionID: sessionID,
		Timestamp: time.Now(),
		Data:      SessionEventData{Authenticated: true, Role: role, Name: name},
	}
}

// NewSessionClearedEvent builds the event for a cleared session.
func NewSessionClearedEvent(sessionID string) Event {
	return Event{
		Type:      EventSessionCleared,
		SessionID: sessionID,
		Timestamp: time.Now(),
		Data:      SessionEventData{Authenticated: false},
	}
}

// NewListChangedEvent builds a refetch hint for one session.
func NewListChangedEvent(sessionID, list string) Event {
	return Event{
		Type:      EventListChanged,
		SessionID: sessionID,
		Timestamp: time.Now(),
		Data:      ListChangedEventData{List: list},
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Timestamp: now,
		Data:      HeartbeatEventData{ServerTime: now},
	}
}
