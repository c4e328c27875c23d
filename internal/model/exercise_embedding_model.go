package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ExerciseEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ThreadID       string          `gorm:"type:varchar(128);not null;uniqueIndex"`
	Document       string          `gorm:"type:text;not null"` // the request text the exercise is keyed by
	Payload        datatypes.JSON  `gorm:"type:jsonb;not null"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // Gemini text-embedding-004 uses 768 dimensions
	IndexedAt      time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (ExerciseEmbedding) TableName() string {
	return "exercise_embeddings"
}
