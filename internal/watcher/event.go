package watcher

import "time"

// EventType represents the type of template file change.
type EventType int

const (
	// EventChanged is emitted when a file is created or rewritten (after settling).
	EventChanged EventType = iota
	// EventRemoved is emitted when a file is deleted or renamed away.
	EventRemoved
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventChanged:
		return "changed"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event represents a settled change to a watched file.
type Event struct {
	Type    EventType
	Path    string
	ModTime time.Time
}
