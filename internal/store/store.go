// Package store defines the persistence contracts consumed by the
// reputation and trust engine. Three backends implement them: an
// in-memory store, an embedded BadgerDB store, and a Cypher-backed
// graph database store.
package store

import (
	"context"

	"github.com/plateful/plateful/backend/internal/domain"
)

// ListOptions paginates edge listings. A non-positive Limit falls back
// to the backend default; Offset is clamped at zero.
type ListOptions struct {
	Offset int
	Limit  int
}

// CounterDelta is an atomic adjustment to a user's activity counters.
// Deltas are applied with atomic adds inside the store, never by
// writing back a previously read snapshot.
type CounterDelta struct {
	Upvotes         int
	Downvotes       int
	Recommendations int
}

// RescoreFunc derives the new reputation score and verification level
// from the post-increment counters. Stores invoke it inside the same
// transaction or critical section as the counter update so no reader
// observes new counters with a stale score.
type RescoreFunc func(domain.UserReputation) (float64, domain.VerificationLevel)

// ReputationStore persists per-user reputation records. Records are
// created lazily and never deleted.
type ReputationStore interface {
	// GetReputation returns the record and whether it exists. Absence
	// is not an error.
	GetReputation(ctx context.Context, userID string) (domain.UserReputation, bool, error)

	// EnsureReputation returns the existing record or creates a fresh
	// one with zeroed counters and the basic verification level.
	EnsureReputation(ctx context.Context, userID string) (domain.UserReputation, error)

	// UpdateSpecializations replaces the user-editable specialization
	// tags, creating the record if needed.
	UpdateSpecializations(ctx context.Context, userID string, specializations []string) (domain.UserReputation, error)

	// ApplyActivity atomically adds delta to the user's counters and
	// stores the score and level produced by rescore, as one unit.
	// The record is created first if it does not exist.
	ApplyActivity(ctx context.Context, userID string, delta CounterDelta, rescore RescoreFunc) (domain.UserReputation, error)
}

// RelationshipStore persists directed follow edges. Edge mutations also
// maintain the follower/following counters on both endpoint reputation
// records within the same transaction, so the counters always equal the
// number of edges terminating or originating at a user.
type RelationshipStore interface {
	// CreateEdge persists the edge and increments the two endpoint
	// counters. A duplicate edge yields a Conflict error and no write.
	CreateEdge(ctx context.Context, edge domain.UserRelationship) error

	// DeleteEdge removes the edge and decrements the two endpoint
	// counters. A missing edge yields NotFound. A decrement that would
	// go negative yields Internal; it is never clamped silently.
	DeleteEdge(ctx context.Context, followerID, followedID string) error

	// GetEdge returns the edge and whether it exists.
	GetEdge(ctx context.Context, followerID, followedID string) (domain.UserRelationship, bool, error)

	// EdgeExists reports whether followerID follows followedID.
	EdgeExists(ctx context.Context, followerID, followedID string) (bool, error)

	// HasTwoHopPath reports whether some intermediate user is followed
	// by sourceID and follows targetID.
	HasTwoHopPath(ctx context.Context, sourceID, targetID string) (bool, error)

	// ListByFollower pages over edges originating at userID, ordered by
	// creation time then followed ID.
	ListByFollower(ctx context.Context, userID string, opts ListOptions) (domain.RelationshipPage, error)

	// ListByFollowed pages over edges terminating at userID, ordered by
	// creation time then follower ID.
	ListByFollowed(ctx context.Context, userID string, opts ListOptions) (domain.RelationshipPage, error)
}

// Store is the full persistence surface a backend provides.
type Store interface {
	ReputationStore
	RelationshipStore

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// DefaultListLimit bounds a single listing page when the caller does
// not specify a limit.
const DefaultListLimit = 50

// MaxListLimit is the hard per-page ceiling.
const MaxListLimit = 200

// NormalizeList clamps pagination options to the supported range.
func NormalizeList(opts ListOptions) ListOptions {
	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	if opts.Limit > MaxListLimit {
		opts.Limit = MaxListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return opts
}
