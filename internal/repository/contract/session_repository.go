package contract

import (
	"context"

	"clarity-cbt-be/internal/entity"
)

// SessionRepository persists per-thread workflow state. Get returns
// (nil, nil) for an unknown thread id; the engine decides whether that
// means "create" or "not found". Save overwrites the whole checkpoint;
// atomicity of read-modify-write is enforced by the engine's per-thread
// lock, not here.
type SessionRepository interface {
	Get(ctx context.Context, threadID string) (*entity.Session, error)
	Save(ctx context.Context, session *entity.Session) error
	Delete(ctx context.Context, threadID string) error
}
