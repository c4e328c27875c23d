package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCloneIsDeep(t *testing.T) {
	s := NewSession("t1")
	s.CurrentDraft = &ExerciseDraft{Title: "A", Instructions: "1.", Content: "c"}
	s.DraftHistory = []DraftVersion{{VersionNumber: 1, Draft: *s.CurrentDraft}}
	s.Critiques = []Critique{{Author: RoleSafetyGuardian, Approved: true}}
	s.AppendMessage(MessageRoleUser, "hello")

	c := s.Clone()
	c.CurrentDraft.Title = "B"
	c.DraftHistory = append(c.DraftHistory, DraftVersion{VersionNumber: 2})
	c.Critiques[0].Approved = false
	c.AppendMessage(MessageRoleAssistant, "hi")

	assert.Equal(t, "A", s.CurrentDraft.Title)
	assert.Len(t, s.DraftHistory, 1)
	assert.True(t, s.Critiques[0].Approved)
	assert.Len(t, s.Messages, 1)
}

func TestSessionResetKeepsMessages(t *testing.T) {
	s := NewSession("t1")
	s.AppendMessage(MessageRoleUser, "first request")
	s.CurrentDraft = &ExerciseDraft{Title: "A"}
	s.DraftHistory = []DraftVersion{{VersionNumber: 1}}
	s.Critiques = []Critique{{Author: RoleSafetyGuardian}}
	s.Scratchpad = []AgentNote{{Author: RoleDrafter}}
	s.Metadata.TotalRevisions = 3
	s.LastReviewer = RoleClinicalCritic
	s.PendingReviewer = RoleClinicalCritic

	s.Reset()

	assert.Nil(t, s.CurrentDraft)
	assert.Empty(t, s.DraftHistory)
	assert.Empty(t, s.Critiques)
	assert.Empty(t, s.Scratchpad)
	assert.Equal(t, ReviewMetadata{}, s.Metadata)
	assert.Equal(t, "", s.LastReviewer)
	assert.Equal(t, "", s.PendingReviewer)
	assert.Len(t, s.Messages, 1)
}

func TestApprovedByUsesLatestCritique(t *testing.T) {
	s := NewSession("t1")
	s.Critiques = []Critique{
		{Author: RoleSafetyGuardian, Approved: false},
		{Author: RoleClinicalCritic, Approved: true},
		{Author: RoleSafetyGuardian, Approved: true},
	}

	assert.True(t, s.ApprovedBy(RoleSafetyGuardian))
	assert.True(t, s.ApprovedBy(RoleClinicalCritic))
	assert.False(t, s.ApprovedBy(RoleDrafter))

	latest := s.LatestCritiqueBy(RoleSafetyGuardian)
	require.NotNil(t, latest)
	assert.True(t, latest.Approved)
}

func TestLastRejectionAuthor(t *testing.T) {
	s := NewSession("t1")
	assert.Equal(t, "", s.LastRejectionAuthor())

	s.Critiques = []Critique{
		{Author: RoleSafetyGuardian, Approved: false},
		{Author: RoleSafetyGuardian, Approved: true},
		{Author: RoleClinicalCritic, Approved: false},
	}
	assert.Equal(t, RoleClinicalCritic, s.LastRejectionAuthor())
}

func TestOriginalRequest(t *testing.T) {
	s := NewSession("t1")
	assert.Equal(t, "", s.OriginalRequest())

	s.AppendMessage(MessageRoleUser, "first")
	s.AppendMessage(MessageRoleAssistant, "reply")
	s.AppendMessage(MessageRoleUser, "second")
	assert.Equal(t, "first", s.OriginalRequest())
}
