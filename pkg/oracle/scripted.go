package oracle

import (
	"context"
	"fmt"
	"sync"

	"clarity-cbt-be/internal/entity"
)

// ScriptedOracle replays pre-programmed results in order. It exists so
// the orchestrator can be tested (and demoed, see cmd/simulate)
// deterministically: routing logic never depends on a live model.
//
// Each queue is consumed front to back; when a queue runs dry the
// scripted oracle falls back to a benign default (approving critique,
// minimal draft) rather than failing, so scripts only need to spell out
// the interesting steps.
type ScriptedOracle struct {
	mu sync.Mutex

	Intents   []IntentClassification
	Drafts    []entity.ExerciseDraft
	Critiques []CritiqueResult
	Replies   []string

	// Err, when set, makes every call fail with it.
	Err error

	// Call counters, handy for asserting how often each schema ran.
	IntentCalls   int
	DraftCalls    int
	CritiqueCalls int
	ChatCalls     int
}

var _ Gateway = &ScriptedOracle{}

func (s *ScriptedOracle) ClassifyIntent(ctx context.Context, message string, hasActiveDraft bool) (*IntentClassification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.IntentCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Intents) > 0 {
		next := s.Intents[0]
		s.Intents = s.Intents[1:]
		return &next, nil
	}
	return &IntentClassification{Intent: IntentCreateNew, Confidence: 1.0, Reasoning: "scripted default"}, nil
}

func (s *ScriptedOracle) Draft(ctx context.Context, req DraftRequest) (*entity.ExerciseDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DraftCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Drafts) > 0 {
		next := s.Drafts[0]
		s.Drafts = s.Drafts[1:]
		return &next, nil
	}
	return &entity.ExerciseDraft{
		Title:        fmt.Sprintf("Scripted Exercise v%d", req.VersionNumber),
		Instructions: "1. Follow the steps.",
		Content:      "### Scripted content",
	}, nil
}

func (s *ScriptedOracle) Critique(ctx context.Context, role string, draft entity.ExerciseDraft, versionNumber int) (*CritiqueResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CritiqueCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Critiques) > 0 {
		next := s.Critiques[0]
		s.Critiques = s.Critiques[1:]
		return &next, nil
	}
	return &CritiqueResult{Approved: true, Content: "Looks good."}, nil
}

func (s *ScriptedOracle) Chat(ctx context.Context, history []entity.ChatMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ChatCalls++
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.Replies) > 0 {
		next := s.Replies[0]
		s.Replies = s.Replies[1:]
		return next, nil
	}
	return "Hi! I can create personalized CBT exercises for challenges like anxiety or stress.", nil
}
