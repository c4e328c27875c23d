package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"clarity-cbt-be/internal/entity"
	"clarity-cbt-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder maps each distinct text to its own one-hot vector, so
// identical texts have similarity 1 and different texts similarity 0.
type stubEmbedder struct {
	mu   sync.Mutex
	dims map[string]int
}

func newStubEmbedder() *stubEmbedder {
	return &stubEmbedder{dims: make(map[string]int)}
}

func (s *stubEmbedder) Generate(text string, _ string) (*embedding.EmbeddingResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dim, ok := s.dims[text]
	if !ok {
		dim = len(s.dims)
		s.dims[text] = dim
	}
	values := make([]float32, 16)
	values[dim%len(values)] = 1
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: values},
	}, nil
}

func TestExerciseIndexRepository(t *testing.T) {
	repo, err := NewExerciseIndexRepository("", newStubEmbedder())
	require.NoError(t, err)
	ctx := context.Background()

	// Searching an empty index is not an error.
	hits, err := repo.Search(ctx, "anything", 5, 0.75)
	require.NoError(t, err)
	assert.Empty(t, hits)

	exercise := entity.IndexedExercise{
		ID:              "t1",
		Draft:           entity.ExerciseDraft{Title: "Worry Time", Instructions: "1.", Content: "c"},
		OriginalRequest: "I'm anxious about interviews",
		Metadata:        entity.ReviewMetadata{TotalRevisions: 2},
		IndexedAt:       time.Now().UTC(),
	}
	require.NoError(t, repo.Index(ctx, exercise))

	hits, err = repo.Search(ctx, "I'm anxious about interviews", 5, 0.75)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "t1", hits[0].Exercise.ID)
	assert.Equal(t, "Worry Time", hits[0].Exercise.Draft.Title)
	assert.Equal(t, "I'm anxious about interviews", hits[0].Exercise.OriginalRequest)
	assert.Equal(t, 2, hits[0].Exercise.Metadata.TotalRevisions)
	assert.Greater(t, hits[0].Similarity, 0.99)

	// An unrelated query scores below the floor and is filtered out.
	hits, err = repo.Search(ctx, "completely different", 5, 0.75)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
