package foundry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"clarity-cbt-be/internal/entity"
	"clarity-cbt-be/internal/pkg/logger"
	"clarity-cbt-be/internal/repository/contract"
	"clarity-cbt-be/internal/repository/memory"
	"clarity-cbt-be/pkg/oracle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIndex is a canned document store for tests.
type fakeIndex struct {
	hits      []contract.ScoredExercise
	searchErr error
	indexed   []entity.IndexedExercise
	indexErr  error
}

func (f *fakeIndex) Index(_ context.Context, exercise entity.IndexedExercise) error {
	if f.indexErr != nil {
		return f.indexErr
	}
	f.indexed = append(f.indexed, exercise)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, _ int, _ float64) ([]contract.ScoredExercise, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.hits, nil
}

func newTestEngine(gw oracle.Gateway, index contract.ExerciseIndexRepository) (*Engine, contract.SessionRepository) {
	sessions := memory.NewSessionRepository()
	if index == nil {
		index = &fakeIndex{}
	}
	return NewEngine(sessions, index, gw, nil, logger.NewNoopLogger()), sessions
}

func collect(ch <-chan Event) []Event {
	var events []Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func stageNodes(events []Event) []string {
	var nodes []string
	for _, ev := range events {
		if ev.Type == EventTypeStage {
			nodes = append(nodes, ev.Node)
		}
	}
	return nodes
}

func TestRunHappyPath(t *testing.T) {
	script := &oracle.ScriptedOracle{
		Intents: []oracle.IntentClassification{
			{Intent: oracle.IntentCreateNew, Confidence: 0.9},
		},
	}
	engine, _ := newTestEngine(script, nil)

	events := collect(engine.Run(context.Background(), "t1", "I keep worrying about everything"))

	require.NotEmpty(t, events)
	assert.Equal(t, EventTypeMemory, events[0].Type)
	assert.Equal(t, EventTypeComplete, events[len(events)-1].Type)
	assert.Equal(t, []string{
		entity.RoleDrafter,
		entity.RoleSafetyGuardian,
		entity.RoleClinicalCritic,
		entity.RoleHumanReview,
	}, stageNodes(events))

	sess, err := engine.Snapshot(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, sess.CurrentDraft)
	assert.Len(t, sess.DraftHistory, 1)
	assert.Equal(t, 1, sess.Metadata.TotalRevisions)
	assert.Equal(t, sess.Metadata.TotalRevisions, len(sess.DraftHistory))
	assert.Equal(t, "Initial draft", sess.DraftHistory[0].Notes)
	require.NotNil(t, sess.Metadata.SafetyScore)
	assert.Equal(t, 1.0, *sess.Metadata.SafetyScore)
	require.NotNil(t, sess.Metadata.EmpathyScore)
	assert.Equal(t, 1.0, *sess.Metadata.EmpathyScore)
	assert.Len(t, sess.Critiques, 2)
	assert.Equal(t, entity.RoleHumanReview, NextRole(sess))
}

func TestRunSafetyRejectionLoop(t *testing.T) {
	script := &oracle.ScriptedOracle{
		Critiques: []oracle.CritiqueResult{
			{Approved: false, Content: "Contains alarming phrasing."},
			{Approved: true, Content: "Safe after revision."},
			{Approved: true, Content: "Clear and warm."},
		},
	}
	engine, _ := newTestEngine(script, nil)

	events := collect(engine.Run(context.Background(), "t1", "I feel anxious before meetings"))

	assert.Equal(t, []string{
		entity.RoleDrafter,
		entity.RoleSafetyGuardian,
		entity.RoleDrafter,
		entity.RoleSafetyGuardian,
		entity.RoleClinicalCritic,
		entity.RoleHumanReview,
	}, stageNodes(events))

	sess, err := engine.Snapshot(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, sess.DraftHistory, 2)
	assert.Equal(t, 2, sess.Metadata.TotalRevisions)
	assert.Equal(t, "Revised based on 1 critiques", sess.DraftHistory[1].Notes)
	require.NotNil(t, sess.Metadata.SafetyScore)
	assert.Equal(t, 1.0, *sess.Metadata.SafetyScore)
	assert.Equal(t, "", sess.PendingReviewer)
}

func TestRunSafetyValve(t *testing.T) {
	// Safety always approves, clinical never does. The valve must cut
	// the loop after the revision counter exceeds the limit.
	script := &oracle.ScriptedOracle{
		Critiques: []oracle.CritiqueResult{
			{Approved: true, Content: "Safe."},
			{Approved: false, Content: "Too clinical."},
			{Approved: false, Content: "Still too clinical."},
			{Approved: false, Content: "No empathy."},
			{Approved: false, Content: "Structure unclear."},
			{Approved: false, Content: "Not actionable."},
		},
	}
	engine, _ := newTestEngine(script, nil)

	events := collect(engine.Run(context.Background(), "t1", "I'm stressed about work"))

	nodes := stageNodes(events)
	require.NotEmpty(t, nodes)
	assert.Equal(t, entity.RoleHumanReview, nodes[len(nodes)-1])
	assert.Equal(t, EventTypeComplete, events[len(events)-1].Type)

	sess, err := engine.Snapshot(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, MaxRevisions+1, sess.Metadata.TotalRevisions)
	assert.Equal(t, sess.Metadata.TotalRevisions, len(sess.DraftHistory))
	// 1 safety review + 5 clinical rejections, nothing after the valve.
	assert.Equal(t, 6, script.CritiqueCalls)
}

func TestRunChatRoute(t *testing.T) {
	script := &oracle.ScriptedOracle{
		Intents: []oracle.IntentClassification{
			{Intent: oracle.IntentChat, Reasoning: "greeting"},
		},
		Replies: []string{"Hello! Tell me what you are struggling with."},
	}
	engine, _ := newTestEngine(script, nil)

	events := collect(engine.Run(context.Background(), "t1", "hi there"))

	require.Len(t, events, 3)
	assert.Equal(t, EventTypeMemory, events[0].Type)
	assert.Equal(t, EventTypeChat, events[1].Type)
	assert.Equal(t, "Hello! Tell me what you are struggling with.", events[1].Payload["reply"])
	assert.Equal(t, EventTypeComplete, events[2].Type)

	sess, err := engine.Snapshot(context.Background(), "t1")
	require.NoError(t, err)
	assert.Nil(t, sess.CurrentDraft)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, entity.MessageRoleAssistant, sess.Messages[1].Role)
	assert.Equal(t, 0, script.DraftCalls)
}

func TestRunCreateNewResetsSession(t *testing.T) {
	script := &oracle.ScriptedOracle{
		Drafts: []entity.ExerciseDraft{
			{Title: "Cooling Down Anger", Instructions: "1.", Content: "a"},
			{Title: "Winding Down for Sleep", Instructions: "1.", Content: "b"},
		},
	}
	engine, sessions := newTestEngine(script, nil)

	// First exercise all the way through.
	collect(engine.Run(context.Background(), "t1", "help with my anger"))
	before, err := engine.Snapshot(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, before.CurrentDraft)
	firstTitle := before.CurrentDraft.Title

	// Second request on the same thread starts from scratch.
	collect(engine.Run(context.Background(), "t1", "now I need help sleeping"))

	sess, err := sessions.Get(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, sess.CurrentDraft)
	assert.NotEqual(t, firstTitle, sess.CurrentDraft.Title)
	assert.Len(t, sess.DraftHistory, 1)
	assert.Equal(t, 1, sess.Metadata.TotalRevisions)
	// The thread log survives the reset: 2 user messages.
	assert.Len(t, sess.Messages, 2)
}

func TestRunRetrievalHitSkipsPipeline(t *testing.T) {
	indexed := entity.IndexedExercise{
		ID:              "old-thread",
		Draft:           entity.ExerciseDraft{Title: "Worry Time", Instructions: "1. Schedule it.", Content: "..."},
		OriginalRequest: "I'm always anxious at work",
	}
	script := &oracle.ScriptedOracle{
		Intents: []oracle.IntentClassification{
			{Intent: oracle.IntentRetrieve, Query: "anxiety exercise", Confidence: 0.9},
		},
	}
	engine, _ := newTestEngine(script, &fakeIndex{
		hits: []contract.ScoredExercise{{Exercise: indexed, Similarity: 0.82}},
	})

	events := collect(engine.Run(context.Background(), "t1", "show me that anxiety exercise again"))

	require.Len(t, events, 2)
	assert.Equal(t, EventTypeMemory, events[0].Type)
	assert.Equal(t, true, events[0].Payload["found"])
	assert.Equal(t, "Worry Time", events[0].Payload["title"])
	assert.Equal(t, EventTypeComplete, events[1].Type)

	sess, err := engine.Snapshot(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, sess.CurrentDraft)
	assert.Equal(t, "Worry Time", sess.CurrentDraft.Title)
	// Retrieval never spends a drafter run.
	assert.Equal(t, 0, script.DraftCalls)
	assert.Empty(t, sess.DraftHistory)
}

// failingCritic approves nothing and fails instead: exercises the
// abort path of a mid-pipeline oracle outage.
type failingCritic struct {
	oracle.ScriptedOracle
	err error
}

func (f *failingCritic) Critique(ctx context.Context, role string, draft entity.ExerciseDraft, versionNumber int) (*oracle.CritiqueResult, error) {
	return nil, f.err
}

func TestRunAbortsStepAtomically(t *testing.T) {
	backendErr := errors.New("model backend down")
	script := &failingCritic{err: backendErr}
	engine, _ := newTestEngine(script, nil)

	events := collect(engine.Run(context.Background(), "t1", "I feel hopeless lately"))

	last := events[len(events)-1]
	assert.Equal(t, EventTypeError, last.Type)
	assert.Contains(t, last.Error, "model backend down")

	// The drafter step committed; the failed review left no trace.
	sess, err := engine.Snapshot(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, sess.DraftHistory, 1)
	assert.Empty(t, sess.Critiques)
	assert.Nil(t, sess.Metadata.SafetyScore)
}

func TestSnapshotUnknownThread(t *testing.T) {
	engine, _ := newTestEngine(&oracle.ScriptedOracle{}, nil)

	_, err := engine.Snapshot(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestApprove(t *testing.T) {
	engine, _ := newTestEngine(&oracle.ScriptedOracle{}, nil)
	collect(engine.Run(context.Background(), "t1", "worried about exams"))

	sess, err := engine.Approve(context.Background(), "t1", "Edited by the clinician.")
	require.NoError(t, err)
	require.NotNil(t, sess.CurrentDraft)
	assert.Equal(t, "Edited by the clinician.", sess.CurrentDraft.Content)
	// Editing on approval is in-place, not a new ledger version.
	assert.Len(t, sess.DraftHistory, 1)
	assert.NotEqual(t, sess.DraftHistory[0].Draft.Content, sess.CurrentDraft.Content)
}

func TestApproveUnknownThread(t *testing.T) {
	engine, _ := newTestEngine(&oracle.ScriptedOracle{}, nil)

	_, err := engine.Approve(context.Background(), "nope", "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSaveDraft(t *testing.T) {
	index := &fakeIndex{}
	engine, _ := newTestEngine(&oracle.ScriptedOracle{}, index)
	collect(engine.Run(context.Background(), "t1", "worried about exams"))
	index.indexed = nil

	draft := entity.ExerciseDraft{Title: "Edited", Instructions: "1. Breathe.", Content: "New content"}
	sess, warning, err := engine.SaveDraft(context.Background(), "t1", draft, "")
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.Equal(t, "Edited", sess.CurrentDraft.Title)

	// Re-indexed under the thread's original request.
	require.Len(t, index.indexed, 1)
	assert.Equal(t, "worried about exams", index.indexed[0].OriginalRequest)
	assert.Equal(t, "Edited", index.indexed[0].Draft.Title)
}

func TestSaveDraftIndexFailureIsWarning(t *testing.T) {
	index := &fakeIndex{}
	engine, _ := newTestEngine(&oracle.ScriptedOracle{}, index)
	collect(engine.Run(context.Background(), "t1", "worried about exams"))
	index.indexErr = errors.New("index offline")

	draft := entity.ExerciseDraft{Title: "Edited", Instructions: "1.", Content: "c"}
	sess, warning, err := engine.SaveDraft(context.Background(), "t1", draft, "")
	require.NoError(t, err)
	assert.Contains(t, warning, "re-indexing failed")
	assert.Equal(t, "Edited", sess.CurrentDraft.Title)
}

func TestRunConcurrentThreadsAreIsolated(t *testing.T) {
	engine, _ := newTestEngine(&oracle.ScriptedOracle{}, nil)

	messages := map[string]string{
		"c1": "worried about exams",
		"c2": "anger at work",
		"c3": "cannot sleep at night",
		"c4": "panic on the train",
	}

	var wg sync.WaitGroup
	for threadID, message := range messages {
		wg.Add(1)
		go func(threadID, message string) {
			defer wg.Done()
			collect(engine.Run(context.Background(), threadID, message))
		}(threadID, message)
	}
	wg.Wait()

	for threadID, message := range messages {
		sess, err := engine.Snapshot(context.Background(), threadID)
		require.NoError(t, err)
		require.Len(t, sess.Messages, 1)
		assert.Equal(t, message, sess.Messages[0].Content)
		assert.Len(t, sess.DraftHistory, 1)
		assert.Equal(t, 1, sess.Metadata.TotalRevisions)
	}
}
