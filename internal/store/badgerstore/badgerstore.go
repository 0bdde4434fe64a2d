// Package badgerstore implements the engine store contracts on top of
// BadgerDB, giving a single-node deployment durable storage without an
// external database.
package badgerstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/plateful/plateful/backend/internal/domain"
	"github.com/plateful/plateful/backend/internal/store"
)

// Key layout. The 0x00 separator is safe because user IDs are
// printable identifiers.
//
//	0x01 <userId>                    -> JSON(UserReputation)
//	0x02 <followerId> 0x00 <followedId> -> JSON(UserRelationship)
//	0x03 <followedId> 0x00 <followerId> -> JSON(UserRelationship)
const (
	prefixReputation = byte(0x01)
	prefixOutgoing   = byte(0x02)
	prefixIncoming   = byte(0x03)
)

// Transactions are optimistic; a conflicting commit aborts cleanly and
// is retried with fresh reads, so no partial state is ever applied.
const maxTxnRetries = 10

// Store is a BadgerDB-backed implementation of store.Store. Each edge
// mutation runs in a single transaction covering the edge keys and both
// endpoint counters.
type Store struct {
	db    *badger.DB
	nowFn func() time.Time
}

// Options configures the backing database.
type Options struct {
	Path     string
	InMemory bool
}

// Open initialises the database at opts.Path, or fully in memory when
// opts.InMemory is set.
func Open(opts Options) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path).WithLogger(nil)
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &Store{db: db, nowFn: time.Now}, nil
}

// WithClock overrides the time provider (used primarily in tests).
func (s *Store) WithClock(nowFn func() time.Time) *Store {
	if nowFn != nil {
		s.nowFn = nowFn
	}
	return s
}

func (s *Store) GetReputation(_ context.Context, userID string) (domain.UserReputation, bool, error) {
	var rep domain.UserReputation
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		got, ok, err := readReputation(txn, userID)
		if err != nil {
			return err
		}
		rep, found = got, ok
		return nil
	})
	if err != nil {
		return domain.UserReputation{}, false, domain.WrapInternal("read reputation", err)
	}
	return rep, found, nil
}

func (s *Store) EnsureReputation(_ context.Context, userID string) (domain.UserReputation, error) {
	var rep domain.UserReputation
	err := s.update(func(txn *badger.Txn) error {
		got, err := s.ensureReputation(txn, userID)
		if err != nil {
			return err
		}
		rep = got
		return nil
	})
	if err != nil {
		return domain.UserReputation{}, err
	}
	return rep, nil
}

func (s *Store) UpdateSpecializations(_ context.Context, userID string, specializations []string) (domain.UserReputation, error) {
	var rep domain.UserReputation
	err := s.update(func(txn *badger.Txn) error {
		got, err := s.ensureReputation(txn, userID)
		if err != nil {
			return err
		}
		got.Specializations = append([]string(nil), specializations...)
		if err := writeReputation(txn, got); err != nil {
			return err
		}
		rep = got
		return nil
	})
	if err != nil {
		return domain.UserReputation{}, err
	}
	return rep, nil
}

func (s *Store) ApplyActivity(_ context.Context, userID string, delta store.CounterDelta, rescore store.RescoreFunc) (domain.UserReputation, error) {
	var rep domain.UserReputation
	err := s.update(func(txn *badger.Txn) error {
		got, err := s.ensureReputation(txn, userID)
		if err != nil {
			return err
		}
		got.UpvotesReceived += delta.Upvotes
		got.DownvotesReceived += delta.Downvotes
		got.TotalRecommendations += delta.Recommendations
		if rescore != nil {
			got.ReputationScore, got.VerificationLevel = rescore(got)
		}
		if err := writeReputation(txn, got); err != nil {
			return err
		}
		rep = got
		return nil
	})
	if err != nil {
		return domain.UserReputation{}, err
	}
	return rep, nil
}

func (s *Store) CreateEdge(_ context.Context, edge domain.UserRelationship) error {
	return s.update(func(txn *badger.Txn) error {
		outKey := edgeKey(prefixOutgoing, edge.FollowerID, edge.FollowedID)
		if _, err := txn.Get(outKey); err == nil {
			return domain.NewError(domain.KindConflict, "relationship %s -> %s already exists", edge.FollowerID, edge.FollowedID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		payload, err := json.Marshal(edge)
		if err != nil {
			return err
		}
		if err := txn.Set(outKey, payload); err != nil {
			return err
		}
		if err := txn.Set(edgeKey(prefixIncoming, edge.FollowedID, edge.FollowerID), payload); err != nil {
			return err
		}

		follower, err := s.ensureReputation(txn, edge.FollowerID)
		if err != nil {
			return err
		}
		follower.Following++
		if err := writeReputation(txn, follower); err != nil {
			return err
		}

		followed, err := s.ensureReputation(txn, edge.FollowedID)
		if err != nil {
			return err
		}
		followed.Followers++
		return writeReputation(txn, followed)
	})
}

func (s *Store) DeleteEdge(_ context.Context, followerID, followedID string) error {
	return s.update(func(txn *badger.Txn) error {
		outKey := edgeKey(prefixOutgoing, followerID, followedID)
		if _, err := txn.Get(outKey); errors.Is(err, badger.ErrKeyNotFound) {
			return domain.NewError(domain.KindNotFound, "relationship %s -> %s does not exist", followerID, followedID)
		} else if err != nil {
			return err
		}

		follower, err := s.ensureReputation(txn, followerID)
		if err != nil {
			return err
		}
		followed, err := s.ensureReputation(txn, followedID)
		if err != nil {
			return err
		}
		if follower.Following <= 0 || followed.Followers <= 0 {
			return domain.NewError(domain.KindInternal, "counter underflow deleting %s -> %s", followerID, followedID)
		}

		if err := txn.Delete(outKey); err != nil {
			return err
		}
		if err := txn.Delete(edgeKey(prefixIncoming, followedID, followerID)); err != nil {
			return err
		}

		follower.Following--
		if err := writeReputation(txn, follower); err != nil {
			return err
		}
		followed.Followers--
		return writeReputation(txn, followed)
	})
}

func (s *Store) GetEdge(_ context.Context, followerID, followedID string) (domain.UserRelationship, bool, error) {
	var edge domain.UserRelationship
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(edgeKey(prefixOutgoing, followerID, followedID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &edge)
		})
	})
	if err != nil {
		return domain.UserRelationship{}, false, domain.WrapInternal("read relationship", err)
	}
	return edge, found, nil
}

func (s *Store) EdgeExists(ctx context.Context, followerID, followedID string) (bool, error) {
	_, found, err := s.GetEdge(ctx, followerID, followedID)
	return found, err
}

func (s *Store) HasTwoHopPath(_ context.Context, sourceID, targetID string) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := listPrefix(prefixOutgoing, sourceID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			intermediate := counterpartFromKey(it.Item().Key(), len(prefix))
			if intermediate == sourceID || intermediate == targetID {
				continue
			}
			if _, err := txn.Get(edgeKey(prefixOutgoing, intermediate, targetID)); err == nil {
				found = true
				return nil
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, domain.WrapInternal("scan two-hop path", err)
	}
	return found, nil
}

func (s *Store) ListByFollower(_ context.Context, userID string, opts store.ListOptions) (domain.RelationshipPage, error) {
	edges, err := s.scanEdges(listPrefix(prefixOutgoing, userID))
	if err != nil {
		return domain.RelationshipPage{}, err
	}
	store.SortEdges(edges, true)
	return store.PaginateEdges(edges, opts), nil
}

func (s *Store) ListByFollowed(_ context.Context, userID string, opts store.ListOptions) (domain.RelationshipPage, error) {
	edges, err := s.scanEdges(listPrefix(prefixIncoming, userID))
	if err != nil {
		return domain.RelationshipPage{}, err
	}
	store.SortEdges(edges, false)
	return store.PaginateEdges(edges, opts), nil
}

func (s *Store) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger store is closed")
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

// update runs fn in a read-write transaction, retrying aborted commits.
// Classified domain errors pass through untouched; everything else is
// wrapped as internal.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err == nil {
		return nil
	}
	var classified *domain.Error
	if errors.As(err, &classified) {
		return err
	}
	return domain.WrapInternal("badger transaction", err)
}

func (s *Store) ensureReputation(txn *badger.Txn, userID string) (domain.UserReputation, error) {
	rep, found, err := readReputation(txn, userID)
	if err != nil {
		return domain.UserReputation{}, err
	}
	if found {
		return rep, nil
	}
	rep = domain.UserReputation{
		UserID:            userID,
		VerificationLevel: domain.VerificationBasic,
		ActiveSince:       s.nowFn().UTC(),
	}
	return rep, writeReputation(txn, rep)
}

func (s *Store) scanEdges(prefix []byte) ([]domain.UserRelationship, error) {
	var edges []domain.UserRelationship
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var edge domain.UserRelationship
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &edge)
			})
			if err != nil {
				return err
			}
			edges = append(edges, edge)
		}
		return nil
	})
	if err != nil {
		return nil, domain.WrapInternal("scan relationships", err)
	}
	return edges, nil
}

func readReputation(txn *badger.Txn, userID string) (domain.UserReputation, bool, error) {
	item, err := txn.Get(reputationKey(userID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.UserReputation{}, false, nil
	}
	if err != nil {
		return domain.UserReputation{}, false, err
	}

	var rep domain.UserReputation
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rep)
	})
	if err != nil {
		return domain.UserReputation{}, false, err
	}
	return rep, true, nil
}

func writeReputation(txn *badger.Txn, rep domain.UserReputation) error {
	payload, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	return txn.Set(reputationKey(rep.UserID), payload)
}

func reputationKey(userID string) []byte {
	key := make([]byte, 0, 1+len(userID))
	key = append(key, prefixReputation)
	return append(key, userID...)
}

func edgeKey(prefix byte, first, second string) []byte {
	key := make([]byte, 0, 2+len(first)+len(second))
	key = append(key, prefix)
	key = append(key, first...)
	key = append(key, 0x00)
	return append(key, second...)
}

func listPrefix(prefix byte, userID string) []byte {
	key := make([]byte, 0, 2+len(userID))
	key = append(key, prefix)
	key = append(key, userID...)
	return append(key, 0x00)
}

func counterpartFromKey(key []byte, prefixLen int) string {
	return string(bytes.Clone(key[prefixLen:]))
}
