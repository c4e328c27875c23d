package memory

import (
	"context"
	"testing"

	"clarity-cbt-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()

	got, err := repo.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	s := entity.NewSession("t1")
	s.AppendMessage(entity.MessageRoleUser, "hello")
	require.NoError(t, repo.Save(ctx, s))

	got, err = repo.Get(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "t1", got.ThreadID)
	assert.Len(t, got.Messages, 1)

	// The stored copy is isolated from later mutations.
	got.AppendMessage(entity.MessageRoleUser, "mutated")
	again, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, again.Messages, 1)

	require.NoError(t, repo.Delete(ctx, "t1"))
	got, err = repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
