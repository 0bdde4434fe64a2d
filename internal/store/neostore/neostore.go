// Package neostore implements the engine store contracts against a
// Bolt/openCypher graph database. Users are nodes carrying their
// reputation properties; follow edges are FOLLOWS relationships, so a
// single write statement can create an edge and adjust both endpoint
// counters atomically.
package neostore

import (
	"context"
	"fmt"
	"time"

	"github.com/plateful/plateful/backend/internal/domain"
	"github.com/plateful/plateful/backend/internal/graph"
	"github.com/plateful/plateful/backend/internal/store"
)

// Store persists reputation records and follow edges through a
// graph.Client.
type Store struct {
	client graph.Client
	nowFn  func() time.Time
}

// New instantiates a Store backed by the supplied graph client.
func New(client graph.Client) *Store {
	return &Store{client: client, nowFn: time.Now}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *Store) WithClock(nowFn func() time.Time) *Store {
	if nowFn != nil {
		s.nowFn = nowFn
	}
	return s
}

func (s *Store) GetReputation(ctx context.Context, userID string) (domain.UserReputation, bool, error) {
	res, err := s.client.ExecuteRead(ctx, getReputationCypher, map[string]any{"userId": userID})
	if err != nil {
		return domain.UserReputation{}, false, domain.WrapInternal(fmt.Sprintf("get reputation %s", userID), err)
	}
	if len(res.Records) == 0 {
		return domain.UserReputation{}, false, nil
	}
	return reputationFromRecord(res.Records[0]), true, nil
}

func (s *Store) EnsureReputation(ctx context.Context, userID string) (domain.UserReputation, error) {
	res, err := s.client.ExecuteWrite(ctx, ensureReputationCypher, map[string]any{
		"userId": userID,
		"now":    formatTime(s.nowFn()),
	})
	if err != nil {
		return domain.UserReputation{}, domain.WrapInternal(fmt.Sprintf("ensure reputation %s", userID), err)
	}
	if len(res.Records) == 0 {
		return domain.UserReputation{}, domain.NewError(domain.KindInternal, "ensure reputation %s returned no record", userID)
	}
	return reputationFromRecord(res.Records[0]), nil
}

func (s *Store) UpdateSpecializations(ctx context.Context, userID string, specializations []string) (domain.UserReputation, error) {
	res, err := s.client.ExecuteWrite(ctx, updateSpecializationsCypher, map[string]any{
		"userId":          userID,
		"now":             formatTime(s.nowFn()),
		"specializations": specializations,
	})
	if err != nil {
		return domain.UserReputation{}, domain.WrapInternal(fmt.Sprintf("update specializations %s", userID), err)
	}
	if len(res.Records) == 0 {
		return domain.UserReputation{}, domain.NewError(domain.KindInternal, "update specializations %s returned no record", userID)
	}
	return reputationFromRecord(res.Records[0]), nil
}

// ApplyActivity increments the counters and persists the rescored
// values inside one managed transaction, so readers never observe new
// counters with a stale score.
func (s *Store) ApplyActivity(ctx context.Context, userID string, delta store.CounterDelta, rescore store.RescoreFunc) (domain.UserReputation, error) {
	var rep domain.UserReputation

	err := s.client.WriteTransaction(ctx, func(tx graph.Tx) error {
		res, err := tx.Run(ctx, applyActivityCypher, map[string]any{
			"userId":          userID,
			"now":             formatTime(s.nowFn()),
			"upvotes":         delta.Upvotes,
			"downvotes":       delta.Downvotes,
			"recommendations": delta.Recommendations,
		})
		if err != nil {
			return err
		}
		if len(res.Records) == 0 {
			return fmt.Errorf("apply activity %s returned no record", userID)
		}
		rep = reputationFromRecord(res.Records[0])

		if rescore != nil {
			rep.ReputationScore, rep.VerificationLevel = rescore(rep)
			_, err = tx.Run(ctx, setDerivedCypher, map[string]any{
				"userId": userID,
				"score":  rep.ReputationScore,
				"level":  string(rep.VerificationLevel),
			})
		}
		return err
	})
	if err != nil {
		return domain.UserReputation{}, domain.WrapInternal(fmt.Sprintf("apply activity %s", userID), err)
	}
	return rep, nil
}

func (s *Store) CreateEdge(ctx context.Context, edge domain.UserRelationship) error {
	res, err := s.client.ExecuteWrite(ctx, createEdgeCypher, map[string]any{
		"followerId":     edge.FollowerID,
		"followedId":     edge.FollowedID,
		"relationshipId": edge.ID,
		"trustWeight":    edge.TrustWeight,
		"createdAt":      formatTime(edge.CreatedAt),
		"now":            formatTime(s.nowFn()),
	})
	if err != nil {
		return domain.WrapInternal(fmt.Sprintf("create relationship %s -> %s", edge.FollowerID, edge.FollowedID), err)
	}
	if len(res.Records) == 0 {
		return domain.NewError(domain.KindConflict, "relationship %s -> %s already exists", edge.FollowerID, edge.FollowedID)
	}
	return nil
}

func (s *Store) DeleteEdge(ctx context.Context, followerID, followedID string) error {
	res, err := s.client.ExecuteWrite(ctx, deleteEdgeCypher, map[string]any{
		"followerId": followerID,
		"followedId": followedID,
	})
	if err != nil {
		return domain.WrapInternal(fmt.Sprintf("delete relationship %s -> %s", followerID, followedID), err)
	}
	if len(res.Records) == 0 {
		return domain.NewError(domain.KindNotFound, "relationship %s -> %s does not exist", followerID, followedID)
	}

	record := res.Records[0]
	if toInt(record["following"]) < 0 || toInt(record["followers"]) < 0 {
		return domain.NewError(domain.KindInternal, "counter underflow deleting %s -> %s", followerID, followedID)
	}
	return nil
}

func (s *Store) GetEdge(ctx context.Context, followerID, followedID string) (domain.UserRelationship, bool, error) {
	res, err := s.client.ExecuteRead(ctx, getEdgeCypher, map[string]any{
		"followerId": followerID,
		"followedId": followedID,
	})
	if err != nil {
		return domain.UserRelationship{}, false, domain.WrapInternal(fmt.Sprintf("get relationship %s -> %s", followerID, followedID), err)
	}
	if len(res.Records) == 0 {
		return domain.UserRelationship{}, false, nil
	}
	return edgeFromRecord(res.Records[0]), true, nil
}

func (s *Store) EdgeExists(ctx context.Context, followerID, followedID string) (bool, error) {
	_, found, err := s.GetEdge(ctx, followerID, followedID)
	return found, err
}

func (s *Store) HasTwoHopPath(ctx context.Context, sourceID, targetID string) (bool, error) {
	res, err := s.client.ExecuteRead(ctx, twoHopPathCypher, map[string]any{
		"sourceId": sourceID,
		"targetId": targetID,
	})
	if err != nil {
		return false, domain.WrapInternal(fmt.Sprintf("two-hop path %s -> %s", sourceID, targetID), err)
	}
	return len(res.Records) > 0, nil
}

func (s *Store) ListByFollower(ctx context.Context, userID string, opts store.ListOptions) (domain.RelationshipPage, error) {
	return s.listEdges(ctx, userID, opts, listByFollowerCypher, countByFollowerCypher)
}

func (s *Store) ListByFollowed(ctx context.Context, userID string, opts store.ListOptions) (domain.RelationshipPage, error) {
	return s.listEdges(ctx, userID, opts, listByFollowedCypher, countByFollowedCypher)
}

func (s *Store) listEdges(ctx context.Context, userID string, opts store.ListOptions, listCypher, countCypher string) (domain.RelationshipPage, error) {
	opts = store.NormalizeList(opts)

	countRes, err := s.client.ExecuteRead(ctx, countCypher, map[string]any{"userId": userID})
	if err != nil {
		return domain.RelationshipPage{}, domain.WrapInternal(fmt.Sprintf("count relationships of %s", userID), err)
	}
	total := 0
	if len(countRes.Records) > 0 {
		total = toInt(countRes.Records[0]["total"])
	}

	res, err := s.client.ExecuteRead(ctx, listCypher, map[string]any{
		"userId": userID,
		"skip":   opts.Offset,
		"limit":  opts.Limit,
	})
	if err != nil {
		return domain.RelationshipPage{}, domain.WrapInternal(fmt.Sprintf("list relationships of %s", userID), err)
	}

	items := make([]domain.UserRelationship, 0, len(res.Records))
	for _, record := range res.Records {
		items = append(items, edgeFromRecord(record))
	}

	return domain.RelationshipPage{
		Items:   items,
		Total:   total,
		Offset:  opts.Offset,
		Limit:   opts.Limit,
		HasMore: opts.Offset+len(items) < total,
	}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.VerifyConnectivity(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}
