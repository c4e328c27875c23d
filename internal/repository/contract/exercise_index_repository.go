package contract

import (
	"context"
	"errors"

	"clarity-cbt-be/internal/entity"
)

// ErrIndexUnavailable wraps any backend failure of the semantic index.
// The retrieval gate treats it as non-fatal; writers surface it as a
// warning next to an otherwise successful request.
var ErrIndexUnavailable = errors.New("exercise index unavailable")

// ScoredExercise is one similarity-search hit.
type ScoredExercise struct {
	Exercise   entity.IndexedExercise
	Similarity float64
}

// ExerciseIndexRepository is the document store: finished exercises
// keyed by the request text that produced them, searchable by semantic
// similarity. Implementations must support concurrent reads and
// concurrent inserts.
type ExerciseIndexRepository interface {
	Index(ctx context.Context, exercise entity.IndexedExercise) error

	// Search returns up to limit entries with similarity >= floor,
	// ordered by descending similarity.
	Search(ctx context.Context, query string, limit int, floor float64) ([]ScoredExercise, error)
}
