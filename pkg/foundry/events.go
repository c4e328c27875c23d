package foundry

// Event types streamed to the caller. Every Run ends with exactly one
// complete or error event.
const (
	EventTypeStage    = "stage"
	EventTypeMemory   = "memory"
	EventTypeChat     = "chat"
	EventTypeComplete = "complete"
	EventTypeError    = "error"
)

// Event is one state-transition notification of a running workflow.
type Event struct {
	Type    string                 `json:"type"`
	Node    string                 `json:"node,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Publisher is the outbound side of the engine: stage events and
// finalized exercises go out through it. Implementations are
// best-effort; a publish failure never fails the workflow step.
type Publisher interface {
	Publish(topic string, payload interface{}) error
}
