package entity

import (
	"time"
)

// Session is the durable per-thread state of one review workflow.
// Created on first message for a thread id, mutated by every pipeline
// step, never deleted by the core.
type Session struct {
	ThreadID string `json:"thread_id"`

	// The active exercise. Nil until the drafter has run or a
	// retrieval hit was accepted.
	CurrentDraft *ExerciseDraft `json:"current_draft"`

	// Append-only regions.
	DraftHistory []DraftVersion `json:"draft_history"`
	Critiques    []Critique     `json:"critiques"`
	Scratchpad   []AgentNote    `json:"scratchpad"`
	Messages     []ChatMessage  `json:"messages"`

	// Mutable-in-place region. Each pipeline stage writes only the
	// fields it owns.
	Metadata ReviewMetadata `json:"metadata"`

	// Role tag of the stage that ran last. Empty before the first review.
	LastReviewer string `json:"last_reviewer"`

	// Role tag of the reviewer whose rejection triggered the current
	// revision. Set when a reviewer rejects, cleared when the same
	// reviewer approves. Authoritative for re-review routing.
	PendingReviewer string `json:"pending_reviewer"`

	// Outcome of the last retrieval-gate pass. Transient, never part
	// of the ledger.
	MemoryResult *MemoryResult `json:"memory_result"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSession(threadID string) *Session {
	now := time.Now().UTC()
	return &Session{
		ThreadID:  threadID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy. Pipeline stages mutate a clone and the
// engine swaps it in only after the whole step succeeded, so a failed
// step never leaves a half-written version or critique behind.
func (s *Session) Clone() *Session {
	c := *s
	if s.CurrentDraft != nil {
		d := *s.CurrentDraft
		c.CurrentDraft = &d
	}
	c.DraftHistory = append([]DraftVersion(nil), s.DraftHistory...)
	c.Critiques = append([]Critique(nil), s.Critiques...)
	c.Scratchpad = append([]AgentNote(nil), s.Scratchpad...)
	c.Messages = append([]ChatMessage(nil), s.Messages...)
	if s.MemoryResult != nil {
		m := *s.MemoryResult
		c.MemoryResult = &m
	}
	return &c
}

// Reset wipes all review state. Used when a create_new intent arrives
// while another exercise is active: a new subject must never inherit
// stale history. The message log survives, it belongs to the thread,
// not to the exercise.
func (s *Session) Reset() {
	s.CurrentDraft = nil
	s.DraftHistory = nil
	s.Critiques = nil
	s.Scratchpad = nil
	s.Metadata = ReviewMetadata{}
	s.LastReviewer = ""
	s.PendingReviewer = ""
	s.MemoryResult = nil
}

// LatestCritiqueBy returns the most recent critique authored by the
// given role, which is authoritative for routing decisions.
func (s *Session) LatestCritiqueBy(author string) *Critique {
	for i := len(s.Critiques) - 1; i >= 0; i-- {
		if s.Critiques[i].Author == author {
			return &s.Critiques[i]
		}
	}
	return nil
}

// ApprovedBy reports whether the latest critique by the given role
// approved the current draft.
func (s *Session) ApprovedBy(author string) bool {
	c := s.LatestCritiqueBy(author)
	return c != nil && c.Approved
}

// LastRejectionAuthor scans critiques backward for the most recent
// rejection. Fallback for sessions persisted before PendingReviewer
// was tracked explicitly.
func (s *Session) LastRejectionAuthor() string {
	for i := len(s.Critiques) - 1; i >= 0; i-- {
		if !s.Critiques[i].Approved {
			return s.Critiques[i].Author
		}
	}
	return ""
}

// OriginalRequest returns the first user message of the thread, the
// text the exercise is indexed under.
func (s *Session) OriginalRequest() string {
	for _, m := range s.Messages {
		if m.Role == MessageRoleUser {
			return m.Content
		}
	}
	return ""
}

// AppendMessage records a chat message on the thread log.
func (s *Session) AppendMessage(role, content string) {
	s.Messages = append(s.Messages, ChatMessage{
		Role:    role,
		Content: content,
		SentAt:  time.Now().UTC(),
	})
}
