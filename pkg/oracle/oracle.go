// Package oracle is the sole interface to the generation/classification
// capability. Every pipeline stage consults it through a fixed set of
// typed request/response shapes, which keeps the non-deterministic part
// of the system behind a narrow, mockable boundary.
package oracle

import (
	"context"
	"errors"

	"clarity-cbt-be/internal/entity"
)

// Failure taxonomy. Both are propagated to the caller untouched, never
// silently defaulted and never retried with altered meaning.
var (
	// ErrUnavailable means the backing capability could not be reached.
	ErrUnavailable = errors.New("oracle unavailable")

	// ErrSchemaViolation means the capability answered, but the result
	// could not be coerced into the requested shape.
	ErrSchemaViolation = errors.New("oracle schema violation")
)

// Intents the classifier can produce.
const (
	IntentRetrieve       = "retrieve"
	IntentCreateNew      = "create_new"
	IntentModifyExisting = "modify_existing"
	IntentChat           = "chat"
)

// IntentClassification is the result shape of the intent schema.
type IntentClassification struct {
	Intent     string  `json:"intent"`
	Query      string  `json:"query"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// DraftRequest is the structured context handed to the drafter schema.
type DraftRequest struct {
	Request         string
	CurrentDraft    *entity.ExerciseDraft
	RecentCritiques []entity.Critique
	ReviewerNotes   []entity.AgentNote
	PreviousNotes   string
	VersionNumber   int
}

// CritiqueResult is the result shape of the critique schema. The author
// role is fixed by the calling stage, not by the oracle.
type CritiqueResult struct {
	Approved bool   `json:"approved"`
	Content  string `json:"content"`
}

// Gateway is the oracle contract. Implementations must be
// side-effect-free from the orchestrator's point of view; latency is
// unbounded, so every call takes a context.
type Gateway interface {
	// ClassifyIntent decides what an inbound message is asking for.
	ClassifyIntent(ctx context.Context, message string, hasActiveDraft bool) (*IntentClassification, error)

	// Draft produces a new exercise draft, revising the current one
	// when critiques are present.
	Draft(ctx context.Context, req DraftRequest) (*entity.ExerciseDraft, error)

	// Critique reviews the draft from the perspective of the given
	// reviewer role.
	Critique(ctx context.Context, role string, draft entity.ExerciseDraft, versionNumber int) (*CritiqueResult, error)

	// Chat produces a plain conversational reply.
	Chat(ctx context.Context, history []entity.ChatMessage) (string, error)
}
