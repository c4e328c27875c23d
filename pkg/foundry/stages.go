package foundry

import (
	"context"
	"fmt"
	"unicode/utf8"

	"clarity-cbt-be/internal/entity"
	"clarity-cbt-be/pkg/oracle"
)

// Review scoring. A rejection scores "needs revision", not "failed
// terminally".
const (
	approvedScore       = 1.0
	safetyRejectScore   = 0.5
	clinicalRejectScore = 0.6
)

const noteExcerptLimit = 200

// runDrafter executes the drafting stage on the given session copy:
// new draft, new ledger version, a scratchpad note, and the counters
// the drafter owns. Nothing is written unless the oracle call succeeds.
func (e *Engine) runDrafter(ctx context.Context, s *entity.Session) (map[string]interface{}, error) {
	versionNumber := len(s.DraftHistory) + 1

	req := oracle.DraftRequest{
		Request:       draftRequestText(s),
		CurrentDraft:  s.CurrentDraft,
		VersionNumber: versionNumber,
	}
	if n := len(s.Critiques); n > 0 {
		start := n - 2
		if start < 0 {
			start = 0
		}
		req.RecentCritiques = s.Critiques[start:]
	}
	req.ReviewerNotes = recentReviewerNotes(s.Scratchpad, 3)
	if n := len(s.DraftHistory); n > 0 {
		req.PreviousNotes = s.DraftHistory[n-1].Notes
	}

	draft, err := e.oracle.Draft(ctx, req)
	if err != nil {
		return nil, err
	}

	changes := "Initial draft"
	if len(s.DraftHistory) > 0 {
		changes = fmt.Sprintf("Revised based on %d critiques", len(s.Critiques))
	}

	s.CurrentDraft = draft
	s.DraftHistory = append(s.DraftHistory, entity.DraftVersion{
		VersionNumber: versionNumber,
		Draft:         *draft,
		CreatedBy:     entity.RoleDrafter,
		Notes:         changes,
	})
	s.Scratchpad = append(s.Scratchpad, entity.AgentNote{
		Author:   entity.RoleDrafter,
		Content:  fmt.Sprintf("Created v%d: %s. %s", versionNumber, draft.Title, changes),
		Priority: entity.PriorityInfo,
	})
	s.Metadata.IterationCount++
	s.Metadata.TotalRevisions++
	s.LastReviewer = entity.RoleDrafter

	return map[string]interface{}{
		"title":           draft.Title,
		"version":         versionNumber,
		"total_revisions": s.Metadata.TotalRevisions,
	}, nil
}

// runReview executes one reviewer stage: exactly one critique, one
// scratchpad note targeted at the drafter, and the metadata scores the
// role owns.
func (e *Engine) runReview(ctx context.Context, s *entity.Session, role string) (map[string]interface{}, error) {
	if s.CurrentDraft == nil {
		return nil, fmt.Errorf("%w: %s review requested with no active draft", ErrInvalidTransition, role)
	}

	result, err := e.oracle.Critique(ctx, role, *s.CurrentDraft, len(s.DraftHistory))
	if err != nil {
		return nil, err
	}

	s.Critiques = append(s.Critiques, entity.Critique{
		Author:   role,
		Approved: result.Approved,
		Content:  result.Content,
	})

	payload := map[string]interface{}{
		"approved": result.Approved,
	}

	switch role {
	case entity.RoleSafetyGuardian:
		score := safetyRejectScore
		verdict := "failed"
		priority := entity.PriorityCritical
		if result.Approved {
			score = approvedScore
			verdict = "passed"
			priority = entity.PriorityInfo
		}
		s.Metadata.SafetyScore = &score
		s.Scratchpad = append(s.Scratchpad, entity.AgentNote{
			Author:   role,
			Target:   entity.RoleDrafter,
			Content:  fmt.Sprintf("Safety review %s: %s", verdict, excerpt(result.Content, noteExcerptLimit)),
			Priority: priority,
		})
		payload["safety_score"] = score

	case entity.RoleClinicalCritic:
		score := clinicalRejectScore
		verdict := "needs improvement"
		priority := entity.PriorityWarning
		if result.Approved {
			score = approvedScore
			verdict = "passed"
			priority = entity.PriorityInfo
		}
		empathy, clarity := score, score
		s.Metadata.EmpathyScore = &empathy
		s.Metadata.ClarityScore = &clarity
		s.Scratchpad = append(s.Scratchpad, entity.AgentNote{
			Author:   role,
			Target:   entity.RoleDrafter,
			Content:  fmt.Sprintf("Clinical review %s: %s", verdict, excerpt(result.Content, noteExcerptLimit)),
			Priority: priority,
		})
		payload["empathy_score"] = empathy
		payload["clarity_score"] = clarity
	}

	s.LastReviewer = role
	if result.Approved {
		if s.PendingReviewer == role {
			s.PendingReviewer = ""
		}
	} else {
		s.PendingReviewer = role
	}

	return payload, nil
}

// draftRequestText is what the drafter writes against: the thread's
// original request, plus the latest message when the user has refined
// it since.
func draftRequestText(s *entity.Session) string {
	original := s.OriginalRequest()
	var latest string
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == entity.MessageRoleUser {
			latest = s.Messages[i].Content
			break
		}
	}
	if latest == "" || latest == original {
		return original
	}
	return original + "\n\nLatest request: " + latest
}

// recentReviewerNotes returns up to max of the newest scratchpad notes
// written by reviewers, oldest first.
func recentReviewerNotes(notes []entity.AgentNote, max int) []entity.AgentNote {
	var reviewer []entity.AgentNote
	for _, n := range notes {
		if n.Author == entity.RoleSafetyGuardian || n.Author == entity.RoleClinicalCritic {
			reviewer = append(reviewer, n)
		}
	}
	if len(reviewer) > max {
		reviewer = reviewer[len(reviewer)-max:]
	}
	return reviewer
}

func excerpt(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	// Back up to a rune boundary so the cut never leaves a broken
	// UTF-8 sequence in the note.
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
