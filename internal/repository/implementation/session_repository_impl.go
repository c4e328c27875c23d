package implementation

import (
	"context"
	"encoding/json"
	"errors"

	"clarity-cbt-be/internal/entity"
	"clarity-cbt-be/internal/model"
	"clarity-cbt-be/internal/repository/contract"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepositoryImpl struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) contract.SessionRepository {
	return &SessionRepositoryImpl{db: db}
}

func (r *SessionRepositoryImpl) Get(ctx context.Context, threadID string) (*entity.Session, error) {
	var m model.SessionCheckpoint
	err := r.db.WithContext(ctx).Where("thread_id = ?", threadID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var session entity.Session
	if err := json.Unmarshal(m.State, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepositoryImpl) Save(ctx context.Context, session *entity.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	m := model.SessionCheckpoint{
		ThreadID: session.ThreadID,
		State:    datatypes.JSON(raw),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "thread_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
		}).
		Create(&m).Error
}

func (r *SessionRepositoryImpl) Delete(ctx context.Context, threadID string) error {
	return r.db.WithContext(ctx).Where("thread_id = ?", threadID).Delete(&model.SessionCheckpoint{}).Error
}
