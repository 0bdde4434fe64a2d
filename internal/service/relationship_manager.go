package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/plateful/plateful/backend/internal/config"
	"github.com/plateful/plateful/backend/internal/domain"
	"github.com/plateful/plateful/backend/internal/store"
)

// RelationshipManager enforces the follow/unfollow invariants on top of
// the relationship store: no self-follow, no duplicate edges, and
// counter maintenance that is atomic with the edge mutation (the store
// applies both as one unit).
type RelationshipManager struct {
	store store.Store
	trust config.TrustConfig
	nowFn func() time.Time
	idFn  func() string
}

// NewRelationshipManager constructs a RelationshipManager using the
// configured direct-follow trust weight for new edges.
func NewRelationshipManager(st store.Store, trust config.TrustConfig) *RelationshipManager {
	return &RelationshipManager{
		store: st,
		trust: trust,
		nowFn: time.Now,
		idFn:  uuid.NewString,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (m *RelationshipManager) WithClock(nowFn func() time.Time) *RelationshipManager {
	if nowFn != nil {
		m.nowFn = nowFn
	}
	return m
}

// Follow creates a directed follow edge carrying the direct-follow
// trust weight. Both endpoint reputation records are created lazily.
func (m *RelationshipManager) Follow(ctx context.Context, followerID, followedID string) (domain.UserRelationship, error) {
	if followerID == "" || followedID == "" {
		return domain.UserRelationship{}, domain.NewError(domain.KindInvalidOperation, "follower and followed user IDs are required")
	}
	if followerID == followedID {
		return domain.UserRelationship{}, domain.NewError(domain.KindInvalidOperation, "user %s cannot follow themselves", followerID)
	}

	edge := domain.UserRelationship{
		ID:          m.idFn(),
		FollowerID:  followerID,
		FollowedID:  followedID,
		TrustWeight: m.trust.DirectWeight,
		CreatedAt:   m.nowFn().UTC(),
	}
	if err := m.store.CreateEdge(ctx, edge); err != nil {
		return domain.UserRelationship{}, err
	}
	return edge, nil
}

// Unfollow removes the edge. A missing edge is NotFound; it never
// silently succeeds.
func (m *RelationshipManager) Unfollow(ctx context.Context, followerID, followedID string) error {
	if followerID == "" || followedID == "" {
		return domain.NewError(domain.KindInvalidOperation, "follower and followed user IDs are required")
	}
	return m.store.DeleteEdge(ctx, followerID, followedID)
}

// ListFollowing pages over the users followerID follows, ordered by
// edge creation time with ties broken by followed ID.
func (m *RelationshipManager) ListFollowing(ctx context.Context, userID string, opts store.ListOptions) (domain.RelationshipPage, error) {
	if userID == "" {
		return domain.RelationshipPage{}, domain.NewError(domain.KindInvalidOperation, "user ID is required")
	}
	return m.store.ListByFollower(ctx, userID, opts)
}

// ListFollowers pages over the users following userID.
func (m *RelationshipManager) ListFollowers(ctx context.Context, userID string, opts store.ListOptions) (domain.RelationshipPage, error) {
	if userID == "" {
		return domain.RelationshipPage{}, domain.NewError(domain.KindInvalidOperation, "user ID is required")
	}
	return m.store.ListByFollowed(ctx, userID, opts)
}
