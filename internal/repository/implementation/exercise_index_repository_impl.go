package implementation

import (
	"context"
	"fmt"

	"clarity-cbt-be/internal/mapper"
	"clarity-cbt-be/internal/model"
	"clarity-cbt-be/internal/repository/contract"
	"clarity-cbt-be/pkg/embedding"

	"clarity-cbt-be/internal/entity"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExerciseIndexRepositoryImpl struct {
	db       *gorm.DB
	embedder embedding.EmbeddingProvider
	mapper   *mapper.ExerciseEmbeddingMapper
}

func NewExerciseIndexRepository(db *gorm.DB, embedder embedding.EmbeddingProvider) contract.ExerciseIndexRepository {
	return &ExerciseIndexRepositoryImpl{
		db:       db,
		embedder: embedder,
		mapper:   mapper.NewExerciseEmbeddingMapper(),
	}
}

func (r *ExerciseIndexRepositoryImpl) Index(ctx context.Context, exercise entity.IndexedExercise) error {
	resp, err := r.embedder.Generate(exercise.OriginalRequest, embedding.TaskRetrievalDocument)
	if err != nil {
		return fmt.Errorf("%w: embedding generation failed: %v", contract.ErrIndexUnavailable, err)
	}

	m, err := r.mapper.ToModel(&exercise, resp.Embedding.Values)
	if err != nil {
		return err
	}

	// One row per thread; re-indexing replaces the previous version.
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "thread_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"document", "payload", "embedding_value", "indexed_at", "updated_at"}),
		}).
		Create(m).Error
	if err != nil {
		return fmt.Errorf("%w: %v", contract.ErrIndexUnavailable, err)
	}
	return nil
}

func (r *ExerciseIndexRepositoryImpl) Search(ctx context.Context, query string, limit int, floor float64) ([]contract.ScoredExercise, error) {
	if limit <= 0 {
		limit = 5
	}

	resp, err := r.embedder.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding generation failed: %v", contract.ErrIndexUnavailable, err)
	}
	queryVector := pgvector.NewVector(resp.Embedding.Values)

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (embedding_value <=> query_vector) yields the similarity.
	type result struct {
		model.ExerciseEmbedding
		Similarity float64
	}
	var results []result

	err = r.db.WithContext(ctx).
		Table("exercise_embeddings").
		Select("exercise_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, floor).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrIndexUnavailable, err)
	}

	scored := make([]contract.ScoredExercise, 0, len(results))
	for _, res := range results {
		e, err := r.mapper.ToEntity(&res.ExerciseEmbedding)
		if err != nil {
			return nil, err
		}
		scored = append(scored, contract.ScoredExercise{
			Exercise:   *e,
			Similarity: res.Similarity,
		})
	}
	return scored, nil
}
