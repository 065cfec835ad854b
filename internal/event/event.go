// Package event fans calendar changes out to live subscribers.
package event

type Type string

const (
	TypeCalendarEventCreated Type = "calendar.event.created"
	TypeCalendarEventUpdated Type = "calendar.event.updated"
	TypeCalendarEventDeleted Type = "calendar.event.deleted"

	// TypeStreamReady is sent once to each new stream client after it is
	// registered; later calendar events are guaranteed to reach it.
	TypeStreamReady Type = "stream.ready"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
	ActorID   string `json:"actor_id,omitempty"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
