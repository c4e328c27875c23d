package mapper

import (
	"encoding/json"

	"clarity-cbt-be/internal/entity"
	"clarity-cbt-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// embeddingPayload is the JSONB shape stored next to the vector. The
// document column itself only holds the request text the embedding was
// computed from.
type embeddingPayload struct {
	Draft    entity.ExerciseDraft  `json:"draft"`
	Metadata entity.ReviewMetadata `json:"metadata"`
}

type ExerciseEmbeddingMapper struct{}

func NewExerciseEmbeddingMapper() *ExerciseEmbeddingMapper {
	return &ExerciseEmbeddingMapper{}
}

func (m *ExerciseEmbeddingMapper) ToModel(e *entity.IndexedExercise, vector []float32) (*model.ExerciseEmbedding, error) {
	if e == nil {
		return nil, nil
	}
	raw, err := json.Marshal(embeddingPayload{Draft: e.Draft, Metadata: e.Metadata})
	if err != nil {
		return nil, err
	}
	return &model.ExerciseEmbedding{
		ThreadID:       e.ID,
		Document:       e.OriginalRequest,
		Payload:        datatypes.JSON(raw),
		EmbeddingValue: pgvector.NewVector(vector),
		IndexedAt:      e.IndexedAt,
	}, nil
}

func (m *ExerciseEmbeddingMapper) ToEntity(md *model.ExerciseEmbedding) (*entity.IndexedExercise, error) {
	if md == nil {
		return nil, nil
	}
	var payload embeddingPayload
	if len(md.Payload) > 0 {
		if err := json.Unmarshal(md.Payload, &payload); err != nil {
			return nil, err
		}
	}
	return &entity.IndexedExercise{
		ID:              md.ThreadID,
		Draft:           payload.Draft,
		OriginalRequest: md.Document,
		Metadata:        payload.Metadata,
		IndexedAt:       md.IndexedAt,
	}, nil
}
