package dto

import "clarity-cbt-be/internal/entity"

type StreamRequest struct {
	ThreadID string `json:"thread_id" validate:"required,max=128"`
	Message  string `json:"message" validate:"required"`
}

type ApproveRequest struct {
	ThreadID      string `json:"thread_id" validate:"required,max=128"`
	EditedContent string `json:"edited_content"`
}

type SaveDraftRequest struct {
	ThreadID        string `json:"thread_id" validate:"required,max=128"`
	Title           string `json:"title" validate:"required"`
	Instructions    string `json:"instructions" validate:"required"`
	Content         string `json:"content" validate:"required"`
	OriginalRequest string `json:"original_request"`
}

type ApproveResponse struct {
	ThreadID string                `json:"thread_id"`
	Draft    entity.ExerciseDraft  `json:"draft"`
	Metadata entity.ReviewMetadata `json:"metadata"`
}

type SaveDraftResponse struct {
	ThreadID string               `json:"thread_id"`
	Draft    entity.ExerciseDraft `json:"draft"`
	Warning  string               `json:"warning,omitempty"`
}

// SnapshotResponse is the full state of a thread as exposed over HTTP.
type SnapshotResponse struct {
	ThreadID     string                `json:"thread_id"`
	CurrentDraft *entity.ExerciseDraft `json:"current_draft,omitempty"`
	DraftHistory []entity.DraftVersion `json:"draft_history"`
	Critiques    []entity.Critique     `json:"critiques"`
	Scratchpad   []entity.AgentNote    `json:"scratchpad"`
	Messages     []entity.ChatMessage  `json:"messages"`
	Metadata     entity.ReviewMetadata `json:"metadata"`
	MemoryResult *entity.MemoryResult  `json:"memory_result,omitempty"`
	NextRole     string                `json:"next_role"`
}
