package entity

// Role tags used across the ledger, the scratchpad, and routing.
// human_review is terminal: no automated stage runs after it.
const (
	RoleDrafter        = "drafter"
	RoleSafetyGuardian = "safety_guardian"
	RoleClinicalCritic = "clinical_critic"
	RoleHumanReview    = "human_review"
)
