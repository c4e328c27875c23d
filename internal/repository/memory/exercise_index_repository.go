package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"clarity-cbt-be/internal/entity"
	"clarity-cbt-be/internal/repository/contract"
	"clarity-cbt-be/pkg/embedding"

	"github.com/philippgille/chromem-go"
)

const collectionName = "exercises"

// ExerciseIndexRepository is a chromem-go backed index. With an empty
// path it lives purely in memory; with a path it persists to disk and
// reloads on restart.
type ExerciseIndexRepository struct {
	db         *chromem.DB
	collection *chromem.Collection
	mu         sync.RWMutex
}

func NewExerciseIndexRepository(path string, embedder embedding.EmbeddingProvider) (*ExerciseIndexRepository, error) {
	var db *chromem.DB
	var err error
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, true)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem database: %w", err)
		}
	}

	embFunc := documentEmbeddingFunc(embedder)
	collection, err := db.GetOrCreateCollection(collectionName, nil, embFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	return &ExerciseIndexRepository{db: db, collection: collection}, nil
}

// documentEmbeddingFunc adapts an EmbeddingProvider to chromem's
// callback shape. chromem uses the same function for both indexing and
// querying, so the document task type is used throughout; providers
// that distinguish task types tolerate this for symmetric retrieval.
func documentEmbeddingFunc(embedder embedding.EmbeddingProvider) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		resp, err := embedder.Generate(text, embedding.TaskRetrievalDocument)
		if err != nil {
			return nil, err
		}
		return resp.Embedding.Values, nil
	}
}

func (r *ExerciseIndexRepository) Index(ctx context.Context, exercise entity.IndexedExercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rawDraft, err := json.Marshal(exercise.Draft)
	if err != nil {
		return err
	}
	rawMeta, err := json.Marshal(exercise.Metadata)
	if err != nil {
		return err
	}

	err = r.collection.AddDocument(ctx, chromem.Document{
		ID:      exercise.ID,
		Content: exercise.OriginalRequest,
		Metadata: map[string]string{
			"draft":      string(rawDraft),
			"metadata":   string(rawMeta),
			"indexed_at": exercise.IndexedAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", contract.ErrIndexUnavailable, err)
	}
	return nil
}

func (r *ExerciseIndexRepository) Search(ctx context.Context, query string, limit int, floor float64) ([]contract.ScoredExercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// chromem rejects nResults larger than the collection size.
	count := r.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	results, err := r.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrIndexUnavailable, err)
	}

	scored := make([]contract.ScoredExercise, 0, len(results))
	for _, res := range results {
		similarity := float64(res.Similarity)
		if similarity < floor {
			continue
		}

		var draft entity.ExerciseDraft
		if raw := res.Metadata["draft"]; raw != "" {
			if err := json.Unmarshal([]byte(raw), &draft); err != nil {
				return nil, err
			}
		}
		var meta entity.ReviewMetadata
		if raw := res.Metadata["metadata"]; raw != "" {
			if err := json.Unmarshal([]byte(raw), &meta); err != nil {
				return nil, err
			}
		}
		indexedAt, _ := time.Parse(time.RFC3339, res.Metadata["indexed_at"])

		scored = append(scored, contract.ScoredExercise{
			Exercise: entity.IndexedExercise{
				ID:              res.ID,
				Draft:           draft,
				OriginalRequest: res.Content,
				Metadata:        meta,
				IndexedAt:       indexedAt,
			},
			Similarity: similarity,
		})
	}
	return scored, nil
}
