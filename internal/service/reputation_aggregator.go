package service

import (
	"context"
	"math"

	"github.com/plateful/plateful/backend/internal/config"
	"github.com/plateful/plateful/backend/internal/domain"
	"github.com/plateful/plateful/backend/internal/store"
)

// ReputationAggregator maintains the long-run reputation score and
// verification level of a user from their activity counters. The
// scoring coefficients and tier thresholds come from configuration so
// product tuning never requires a redeploy.
type ReputationAggregator struct {
	store store.ReputationStore
	cfg   config.ReputationConfig
	ver   config.VerificationConfig
}

// NewReputationAggregator constructs a ReputationAggregator.
func NewReputationAggregator(st store.ReputationStore, cfg config.ReputationConfig, ver config.VerificationConfig) *ReputationAggregator {
	return &ReputationAggregator{store: st, cfg: cfg, ver: ver}
}

// Get returns the user's reputation record, creating it lazily on
// first reference.
func (a *ReputationAggregator) Get(ctx context.Context, userID string) (domain.UserReputation, error) {
	if userID == "" {
		return domain.UserReputation{}, domain.NewError(domain.KindInvalidOperation, "user ID is required")
	}
	return a.store.EnsureReputation(ctx, userID)
}

// ApplyVote records an upvote or downvote received by the author and
// rescores in the same store transaction.
func (a *ReputationAggregator) ApplyVote(ctx context.Context, authorID string, upvote bool) (domain.UserReputation, error) {
	if authorID == "" {
		return domain.UserReputation{}, domain.NewError(domain.KindInvalidOperation, "author ID is required")
	}
	delta := store.CounterDelta{Downvotes: 1}
	if upvote {
		delta = store.CounterDelta{Upvotes: 1}
	}
	return a.store.ApplyActivity(ctx, authorID, delta, a.rescore)
}

// ApplyRecommendationCreated records a newly authored recommendation
// and rescores in the same store transaction.
func (a *ReputationAggregator) ApplyRecommendationCreated(ctx context.Context, authorID string) (domain.UserReputation, error) {
	if authorID == "" {
		return domain.UserReputation{}, domain.NewError(domain.KindInvalidOperation, "author ID is required")
	}
	return a.store.ApplyActivity(ctx, authorID, store.CounterDelta{Recommendations: 1}, a.rescore)
}

// Recompute rescores the user from their current counters without
// changing them.
func (a *ReputationAggregator) Recompute(ctx context.Context, userID string) (domain.UserReputation, error) {
	if userID == "" {
		return domain.UserReputation{}, domain.NewError(domain.KindInvalidOperation, "user ID is required")
	}
	return a.store.ApplyActivity(ctx, userID, store.CounterDelta{}, a.rescore)
}

// UpdateProfile applies the user-editable reputation fields. Computed
// fields are rejected at the transport boundary before this is called.
func (a *ReputationAggregator) UpdateProfile(ctx context.Context, userID string, patch domain.ReputationPatch) (domain.UserReputation, error) {
	if userID == "" {
		return domain.UserReputation{}, domain.NewError(domain.KindInvalidOperation, "user ID is required")
	}
	if patch.Specializations == nil {
		return a.store.EnsureReputation(ctx, userID)
	}
	return a.store.UpdateSpecializations(ctx, userID, *patch.Specializations)
}

// ScoreFor is the pure scoring function: monotone non-decreasing in
// upvotes and recommendations, non-increasing in downvotes, bounded to
// [0,1].
func (a *ReputationAggregator) ScoreFor(rep domain.UserReputation) float64 {
	raw := float64(rep.UpvotesReceived)*a.cfg.UpvoteWeight +
		float64(rep.TotalRecommendations)*a.cfg.RecommendationWeight -
		float64(rep.DownvotesReceived)*a.cfg.DownvotePenalty
	return clamp01(raw / a.cfg.Saturation)
}

// LevelFor maps a reputation score (and recommendation volume) to a
// verification level. Thresholds are monotone: a higher score never
// yields a lower tier.
func (a *ReputationAggregator) LevelFor(score float64, totalRecommendations int) domain.VerificationLevel {
	switch {
	case score >= a.ver.ExpertScore && totalRecommendations >= a.ver.ExpertMinRecommendations:
		return domain.VerificationExpert
	case score >= a.ver.VerifiedScore:
		return domain.VerificationVerified
	default:
		return domain.VerificationBasic
	}
}

func (a *ReputationAggregator) rescore(rep domain.UserReputation) (float64, domain.VerificationLevel) {
	score := a.ScoreFor(rep)
	return score, a.LevelFor(score, rep.TotalRecommendations)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
