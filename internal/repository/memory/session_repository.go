package memory

import (
	"context"
	"time"

	"clarity-cbt-be/internal/entity"
	"clarity-cbt-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() contract.SessionRepository {
	// Threads idle for an hour are dropped; expired items are purged
	// every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionRepository{cache: c}
}

func (r *SessionRepository) Get(_ context.Context, threadID string) (*entity.Session, error) {
	if x, found := r.cache.Get(threadID); found {
		// Clone so callers never mutate the cached copy in place.
		return x.(*entity.Session).Clone(), nil
	}
	return nil, nil
}

func (r *SessionRepository) Save(_ context.Context, session *entity.Session) error {
	r.cache.Set(session.ThreadID, session.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, threadID string) error {
	r.cache.Delete(threadID)
	return nil
}
