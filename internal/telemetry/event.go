package telemetry

import "time"

type EventType string

const (
	EventTaskCreated   EventType = "task_created"
	EventTaskCompleted EventType = "task_completed"
	EventTaskDeleted   EventType = "task_deleted"
	EventStoreFallback EventType = "store_fallback"
	EventLoginFailed   EventType = "login_failed"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}

// Recorder receives domain events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	RecordEvent(eventType EventType, metadata EventMetadata) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) RecordEvent(EventType, EventMetadata) error { return nil }

type fanout []Recorder

// Fanout forwards each event to every recorder and returns the first error.
func Fanout(recorders ...Recorder) Recorder {
	return fanout(recorders)
}

func (f fanout) RecordEvent(eventType EventType, metadata EventMetadata) error {
	var first error
	for _, r := range f {
		if r == nil {
			continue
		}
		if err := r.RecordEvent(eventType, metadata); err != nil && first == nil {
			first = err
		}
	}
	return first
}
