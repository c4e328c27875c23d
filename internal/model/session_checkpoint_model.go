package model

import (
	"time"

	"gorm.io/datatypes"
)

type SessionCheckpoint struct {
	ThreadID  string         `gorm:"type:varchar(128);primaryKey"`
	State     datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (SessionCheckpoint) TableName() string {
	return "session_checkpoints"
}
