// Package memstore provides a thread-safe in-memory implementation of
// the engine store contracts. It backs unit tests and the default
// development configuration.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/plateful/plateful/backend/internal/domain"
	"github.com/plateful/plateful/backend/internal/store"
)

// Store keeps reputation records and follow edges in maps guarded by a
// single mutex, so every edge mutation and its counter maintenance is
// one critical section. Returned values are copies; callers cannot
// mutate internal state.
type Store struct {
	mu          sync.RWMutex
	reputations map[string]*domain.UserReputation
	// outgoing[follower][followed] and incoming[followed][follower]
	// index the same edge values.
	outgoing map[string]map[string]*domain.UserRelationship
	incoming map[string]map[string]*domain.UserRelationship
	nowFn    func() time.Time
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		reputations: make(map[string]*domain.UserReputation),
		outgoing:    make(map[string]map[string]*domain.UserRelationship),
		incoming:    make(map[string]map[string]*domain.UserRelationship),
		nowFn:       time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *Store) WithClock(nowFn func() time.Time) *Store {
	if nowFn != nil {
		s.nowFn = nowFn
	}
	return s
}

func (s *Store) GetReputation(_ context.Context, userID string) (domain.UserReputation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rep, ok := s.reputations[userID]
	if !ok {
		return domain.UserReputation{}, false, nil
	}
	return copyReputation(rep), true, nil
}

func (s *Store) EnsureReputation(_ context.Context, userID string) (domain.UserReputation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return copyReputation(s.ensureLocked(userID)), nil
}

func (s *Store) UpdateSpecializations(_ context.Context, userID string, specializations []string) (domain.UserReputation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rep := s.ensureLocked(userID)
	rep.Specializations = append([]string(nil), specializations...)
	return copyReputation(rep), nil
}

func (s *Store) ApplyActivity(_ context.Context, userID string, delta store.CounterDelta, rescore store.RescoreFunc) (domain.UserReputation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rep := s.ensureLocked(userID)
	rep.UpvotesReceived += delta.Upvotes
	rep.DownvotesReceived += delta.Downvotes
	rep.TotalRecommendations += delta.Recommendations
	if rescore != nil {
		rep.ReputationScore, rep.VerificationLevel = rescore(copyReputation(rep))
	}
	return copyReputation(rep), nil
}

func (s *Store) CreateEdge(_ context.Context, edge domain.UserRelationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.outgoing[edge.FollowerID][edge.FollowedID]; ok {
		return domain.NewError(domain.KindConflict, "relationship %s -> %s already exists", edge.FollowerID, edge.FollowedID)
	}

	stored := edge
	if s.outgoing[edge.FollowerID] == nil {
		s.outgoing[edge.FollowerID] = make(map[string]*domain.UserRelationship)
	}
	if s.incoming[edge.FollowedID] == nil {
		s.incoming[edge.FollowedID] = make(map[string]*domain.UserRelationship)
	}
	s.outgoing[edge.FollowerID][edge.FollowedID] = &stored
	s.incoming[edge.FollowedID][edge.FollowerID] = &stored

	s.ensureLocked(edge.FollowerID).Following++
	s.ensureLocked(edge.FollowedID).Followers++
	return nil
}

func (s *Store) DeleteEdge(_ context.Context, followerID, followedID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.outgoing[followerID][followedID]; !ok {
		return domain.NewError(domain.KindNotFound, "relationship %s -> %s does not exist", followerID, followedID)
	}

	follower := s.ensureLocked(followerID)
	followed := s.ensureLocked(followedID)
	if follower.Following <= 0 || followed.Followers <= 0 {
		return domain.NewError(domain.KindInternal, "counter underflow deleting %s -> %s", followerID, followedID)
	}

	delete(s.outgoing[followerID], followedID)
	delete(s.incoming[followedID], followerID)
	follower.Following--
	followed.Followers--
	return nil
}

func (s *Store) GetEdge(_ context.Context, followerID, followedID string) (domain.UserRelationship, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edge, ok := s.outgoing[followerID][followedID]
	if !ok {
		return domain.UserRelationship{}, false, nil
	}
	return *edge, true, nil
}

func (s *Store) EdgeExists(_ context.Context, followerID, followedID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.outgoing[followerID][followedID]
	return ok, nil
}

func (s *Store) HasTwoHopPath(_ context.Context, sourceID, targetID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for intermediate := range s.outgoing[sourceID] {
		if intermediate == sourceID || intermediate == targetID {
			continue
		}
		if _, ok := s.outgoing[intermediate][targetID]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListByFollower(_ context.Context, userID string, opts store.ListOptions) (domain.RelationshipPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges := collectEdges(s.outgoing[userID])
	store.SortEdges(edges, true)
	return store.PaginateEdges(edges, opts), nil
}

func (s *Store) ListByFollowed(_ context.Context, userID string, opts store.ListOptions) (domain.RelationshipPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges := collectEdges(s.incoming[userID])
	store.SortEdges(edges, false)
	return store.PaginateEdges(edges, opts), nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close(context.Context) error { return nil }

func (s *Store) ensureLocked(userID string) *domain.UserReputation {
	rep, ok := s.reputations[userID]
	if !ok {
		rep = &domain.UserReputation{
			UserID:            userID,
			VerificationLevel: domain.VerificationBasic,
			ActiveSince:       s.nowFn().UTC(),
		}
		s.reputations[userID] = rep
	}
	return rep
}

func copyReputation(rep *domain.UserReputation) domain.UserReputation {
	out := *rep
	out.Specializations = append([]string(nil), rep.Specializations...)
	return out
}

func collectEdges(index map[string]*domain.UserRelationship) []domain.UserRelationship {
	edges := make([]domain.UserRelationship, 0, len(index))
	for _, e := range index {
		edges = append(edges, *e)
	}
	return edges
}
