package foundry

import (
	"clarity-cbt-be/internal/entity"
)

// MaxRevisions is the safety valve: once TotalRevisions exceeds it the
// supervisor routes to human_review unconditionally, which bounds every
// possible rejection sequence.
const MaxRevisions = 5

// NextRole decides which stage runs next. Purely a function of the
// session state, so the whole pipeline is deterministic under a
// scripted oracle.
//
// The valve is checked before everything else because it must override
// every other rule. Re-entry after a revision goes back to the reviewer
// whose rejection triggered it (tracked in PendingReviewer, with a
// backward critique scan as fallback for old checkpoints), never to the
// other reviewer.
func NextRole(s *entity.Session) string {
	if s.Metadata.TotalRevisions > MaxRevisions {
		return entity.RoleHumanReview
	}

	if s.CurrentDraft == nil {
		return entity.RoleDrafter
	}

	if s.LastReviewer == "" {
		// Mandatory first review.
		return entity.RoleSafetyGuardian
	}

	switch s.LastReviewer {
	case entity.RoleSafetyGuardian:
		if s.ApprovedBy(entity.RoleSafetyGuardian) {
			return entity.RoleClinicalCritic
		}
		return entity.RoleDrafter

	case entity.RoleClinicalCritic:
		if s.ApprovedBy(entity.RoleClinicalCritic) {
			if s.ApprovedBy(entity.RoleSafetyGuardian) {
				return entity.RoleHumanReview
			}
			// Clinical approved a draft safety never signed off on.
			return entity.RoleSafetyGuardian
		}
		return entity.RoleDrafter

	case entity.RoleDrafter:
		if s.PendingReviewer != "" {
			return s.PendingReviewer
		}
		if author := s.LastRejectionAuthor(); author != "" {
			return author
		}
		return entity.RoleSafetyGuardian
	}

	return entity.RoleHumanReview
}
