package events

import (
	"time"

	"clarity-cbt-be/internal/entity"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event.
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is a plain implementation for ad-hoc events.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// In-process bus topics.
const (
	// TopicWorkflowEvents carries every state-transition event of the
	// review pipeline, one message per committed step.
	TopicWorkflowEvents = "workflow.events"

	// TopicExerciseFinalized fires when a session reaches human_review
	// (or an explicit save requests re-indexing). Consumed by the
	// indexer to embed the exercise into the document store.
	TopicExerciseFinalized = "exercise.finalized"
)

// StageEvent is the payload on TopicWorkflowEvents.
type StageEvent struct {
	ThreadID   string                 `json:"thread_id"`
	Type       string                 `json:"type"`
	Node       string                 `json:"node,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// FinalizedEvent is the payload on TopicExerciseFinalized.
type FinalizedEvent struct {
	ThreadID        string                `json:"thread_id"`
	Draft           entity.ExerciseDraft  `json:"draft"`
	OriginalRequest string                `json:"original_request"`
	Metadata        entity.ReviewMetadata `json:"metadata"`
}
