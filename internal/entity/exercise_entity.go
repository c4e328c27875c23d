package entity

import "time"

// ExerciseDraft is one generated CBT exercise. Immutable once created;
// a revision produces a new draft bound to a new DraftVersion.
type ExerciseDraft struct {
	Title        string `json:"title"`
	Instructions string `json:"instructions"`
	Content      string `json:"content"`
}

// DraftVersion is one immutable ledger entry. VersionNumber is
// session-scoped, starts at 1 and is never reused.
type DraftVersion struct {
	VersionNumber int           `json:"version_number"`
	Draft         ExerciseDraft `json:"draft"`
	CreatedBy     string        `json:"created_by"`
	Notes         string        `json:"notes"`
}

// Critique is one reviewer verdict. Append-only; the most recent entry
// per author supersedes earlier ones.
type Critique struct {
	Author   string `json:"author"`
	Approved bool   `json:"approved"`
	Content  string `json:"content"`
}

// Scratchpad note priorities.
const (
	PriorityInfo     = "info"
	PriorityWarning  = "warning"
	PriorityCritical = "critical"
)

// AgentNote is an informational scratchpad entry. It never drives
// routing, it only feeds context into the next oracle call.
type AgentNote struct {
	Author   string `json:"author"`
	Target   string `json:"target,omitempty"`
	Content  string `json:"content"`
	Priority string `json:"priority"`
}

// ReviewMetadata is the small mutable record next to the append-only
// ledger. Ownership: SafetyScore belongs to the safety stage,
// EmpathyScore/ClarityScore to the clinical stage, the counters to the
// drafter. Scores are nil until the owning stage has run.
type ReviewMetadata struct {
	SafetyScore    *float64 `json:"safety_score"`
	EmpathyScore   *float64 `json:"empathy_score"`
	ClarityScore   *float64 `json:"clarity_score"`
	IterationCount int      `json:"iteration_count"`
	TotalRevisions int      `json:"total_revisions"`
}

// MemoryResult is the transient outcome of one retrieval-gate pass.
type MemoryResult struct {
	Intent          string         `json:"intent"`
	Query           string         `json:"query"`
	Found           bool           `json:"found"`
	Draft           *ExerciseDraft `json:"matched_draft,omitempty"`
	Confidence      float64        `json:"confidence"`
	OriginalRequest string         `json:"original_request,omitempty"`
	Reasoning       string         `json:"reasoning,omitempty"`
}

// Chat message roles on the thread log.
const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sent_at"`
}

// IndexedExercise is the shape persisted into the semantic index: the
// finished draft plus the request text it should be retrievable by.
type IndexedExercise struct {
	ID              string         `json:"id"`
	Draft           ExerciseDraft  `json:"draft"`
	OriginalRequest string         `json:"original_request"`
	Metadata        ReviewMetadata `json:"metadata"`
	IndexedAt       time.Time      `json:"indexed_at"`
}
