package foundry

import (
	"context"
	"errors"
	"testing"

	"clarity-cbt-be/internal/entity"
	"clarity-cbt-be/internal/repository/contract"
	"clarity-cbt-be/pkg/oracle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(id, request, title string, similarity float64) contract.ScoredExercise {
	return contract.ScoredExercise{
		Exercise: entity.IndexedExercise{
			ID:              id,
			Draft:           entity.ExerciseDraft{Title: title, Instructions: "1.", Content: "c"},
			OriginalRequest: request,
		},
		Similarity: similarity,
	}
}

func retrieveGate(query string, index contract.ExerciseIndexRepository) (*RetrievalGate, *entity.Session) {
	script := &oracle.ScriptedOracle{
		Intents: []oracle.IntentClassification{
			{Intent: oracle.IntentRetrieve, Query: query, Confidence: 0.9},
		},
	}
	return NewRetrievalGate(script, index, nil), entity.NewSession("t1")
}

func TestGateTopicMismatchExcludesHigherSimilarity(t *testing.T) {
	// The wrong-topic candidate is more similar; it must still lose to
	// the on-topic one.
	index := &fakeIndex{hits: []contract.ScoredExercise{
		scored("a", "I keep putting off my thesis", "Beating Procrastination", 0.93),
		scored("b", "I'm anxious about presentations", "Calming Presentation Nerves", 0.76),
	}}
	gate, sess := retrieveGate("exercise for my anxiety", index)
	sess.AppendMessage(entity.MessageRoleUser, "that anxiety exercise please")

	route, err := gate.Classify(context.Background(), sess, "that anxiety exercise please")
	require.NoError(t, err)
	assert.Equal(t, RouteFound, route)
	require.NotNil(t, sess.MemoryResult)
	assert.True(t, sess.MemoryResult.Found)
	assert.Equal(t, "Calming Presentation Nerves", sess.MemoryResult.Draft.Title)
	assert.Equal(t, 0.76, sess.MemoryResult.Confidence)
	require.NotNil(t, sess.CurrentDraft)
	assert.Equal(t, "Calming Presentation Nerves", sess.CurrentDraft.Title)
}

func TestGateAllCandidatesOffTopic(t *testing.T) {
	index := &fakeIndex{hits: []contract.ScoredExercise{
		scored("a", "I keep putting off my thesis", "Beating Procrastination", 0.93),
	}}
	gate, sess := retrieveGate("something for my anxiety", index)

	route, err := gate.Classify(context.Background(), sess, "something for my anxiety")
	require.NoError(t, err)
	assert.Equal(t, RoutePipeline, route)
	assert.False(t, sess.MemoryResult.Found)
	assert.Nil(t, sess.CurrentDraft)
}

func TestGateTopicBlindQueryNeedsNearExactMatch(t *testing.T) {
	tests := []struct {
		name       string
		similarity float64
		wantRoute  Route
		wantFound  bool
	}{
		{"below the strict floor", 0.80, RoutePipeline, false},
		{"above the strict floor", 0.86, RouteFound, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Neither query nor candidate text hits the topic
			// vocabulary.
			index := &fakeIndex{hits: []contract.ScoredExercise{
				scored("a", "the thing from before", "That Same Thing", tt.similarity),
			}}
			gate, sess := retrieveGate("the thing from before", index)

			route, err := gate.Classify(context.Background(), sess, "the thing from before")
			require.NoError(t, err)
			assert.Equal(t, tt.wantRoute, route)
			assert.Equal(t, tt.wantFound, sess.MemoryResult.Found)
		})
	}
}

func TestGateIndexFailureFallsThroughToCreation(t *testing.T) {
	index := &fakeIndex{searchErr: errors.New("connection refused")}
	gate, sess := retrieveGate("anxiety exercise", index)

	route, err := gate.Classify(context.Background(), sess, "show me my anxiety exercise")
	require.NoError(t, err)
	assert.Equal(t, RoutePipeline, route)
	assert.False(t, sess.MemoryResult.Found)
	assert.Contains(t, sess.MemoryResult.Reasoning, "index search failed")
}

func TestGateCreateNewResetsActiveSession(t *testing.T) {
	script := &oracle.ScriptedOracle{
		Intents: []oracle.IntentClassification{
			{Intent: oracle.IntentCreateNew, Confidence: 0.9},
		},
	}
	gate := NewRetrievalGate(script, &fakeIndex{}, nil)

	sess := entity.NewSession("t1")
	sess.AppendMessage(entity.MessageRoleUser, "old request")
	sess.CurrentDraft = &entity.ExerciseDraft{Title: "Old", Instructions: "1.", Content: "c"}
	sess.DraftHistory = []entity.DraftVersion{{VersionNumber: 1}}
	sess.Critiques = []entity.Critique{{Author: entity.RoleSafetyGuardian, Approved: true}}
	sess.Metadata.TotalRevisions = 1
	sess.LastReviewer = entity.RoleSafetyGuardian

	route, err := gate.Classify(context.Background(), sess, "something completely different")
	require.NoError(t, err)
	assert.Equal(t, RoutePipeline, route)
	assert.Nil(t, sess.CurrentDraft)
	assert.Empty(t, sess.DraftHistory)
	assert.Empty(t, sess.Critiques)
	assert.Equal(t, 0, sess.Metadata.TotalRevisions)
	assert.Equal(t, "", sess.LastReviewer)
	// The message log belongs to the thread, not the exercise.
	assert.Len(t, sess.Messages, 1)
}

func TestGateOracleFailureAborts(t *testing.T) {
	backendErr := errors.New("model backend down")
	gate := NewRetrievalGate(&oracle.ScriptedOracle{Err: backendErr}, &fakeIndex{}, nil)
	sess := entity.NewSession("t1")

	_, err := gate.Classify(context.Background(), sess, "hello")
	assert.ErrorIs(t, err, backendErr)
}

func TestGateQueryFallsBackToMessage(t *testing.T) {
	index := &fakeIndex{hits: []contract.ScoredExercise{
		scored("a", "stressed about deadlines", "Deadline Pressure Relief", 0.80),
	}}
	gate, sess := retrieveGate("", index)

	route, err := gate.Classify(context.Background(), sess, "give me the stress one again")
	require.NoError(t, err)
	assert.Equal(t, RouteFound, route)
	assert.Equal(t, "give me the stress one again", sess.MemoryResult.Query)
}
