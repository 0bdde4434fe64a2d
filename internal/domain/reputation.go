package domain

import "time"

// VerificationLevel is the discrete trust tier derived from a user's
// reputation score. It is never written directly by callers.
type VerificationLevel string

const (
	VerificationBasic    VerificationLevel = "basic"
	VerificationVerified VerificationLevel = "verified"
	VerificationExpert   VerificationLevel = "expert"
)

// UserReputation aggregates a user's long-run contribution history.
// One record exists per user; it is created lazily on first reference
// and never deleted.
type UserReputation struct {
	UserID               string
	ReputationScore      float64
	VerificationLevel    VerificationLevel
	Specializations      []string
	TotalRecommendations int
	UpvotesReceived      int
	DownvotesReceived    int
	Followers            int
	Following            int
	ActiveSince          time.Time
	TokenRewardsEarned   float64
}

// ReputationPatch carries the user-editable reputation fields. Computed
// fields (score, level, counters) are rejected at the service boundary.
type ReputationPatch struct {
	Specializations *[]string
}
