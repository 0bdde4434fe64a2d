package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/plateful/plateful/backend/internal/domain"
	"github.com/plateful/plateful/backend/internal/store"
	"github.com/plateful/plateful/backend/internal/store/memstore"
)

func TestFollowCreatesEdgeAndCounters(t *testing.T) {
	st := memstore.New()
	mgr := NewRelationshipManager(st, defaultTrustConfig())
	ctx := context.Background()

	edge, err := mgr.Follow(ctx, "USR-1", "USR-2")
	require.NoError(t, err)
	require.NotEmpty(t, edge.ID)
	require.Equal(t, "USR-1", edge.FollowerID)
	require.Equal(t, "USR-2", edge.FollowedID)
	require.Equal(t, 0.75, edge.TrustWeight)
	require.False(t, edge.CreatedAt.IsZero())

	follower, found, err := st.GetReputation(ctx, "USR-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 1, follower.Following)
	require.Equal(t, 0, follower.Followers)

	followed, found, err := st.GetReputation(ctx, "USR-2")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 1, followed.Followers)
	require.Equal(t, 0, followed.Following)
}

func TestFollowRejectsSelf(t *testing.T) {
	mgr := NewRelationshipManager(memstore.New(), defaultTrustConfig())

	_, err := mgr.Follow(context.Background(), "USR-1", "USR-1")
	require.True(t, domain.IsKind(err, domain.KindInvalidOperation))
}

func TestFollowRejectsEmptyIDs(t *testing.T) {
	mgr := NewRelationshipManager(memstore.New(), defaultTrustConfig())

	_, err := mgr.Follow(context.Background(), "", "USR-2")
	require.True(t, domain.IsKind(err, domain.KindInvalidOperation))

	_, err = mgr.Follow(context.Background(), "USR-1", "")
	require.True(t, domain.IsKind(err, domain.KindInvalidOperation))
}

func TestFollowDuplicateConflicts(t *testing.T) {
	st := memstore.New()
	mgr := NewRelationshipManager(st, defaultTrustConfig())
	ctx := context.Background()

	_, err := mgr.Follow(ctx, "USR-1", "USR-2")
	require.NoError(t, err)

	_, err = mgr.Follow(ctx, "USR-1", "USR-2")
	require.True(t, domain.IsKind(err, domain.KindConflict))

	// The failed attempt must not have bumped the counters.
	rep, _, err := st.GetReputation(ctx, "USR-2")
	require.NoError(t, err)
	require.Equal(t, 1, rep.Followers)
}

func TestFollowConcurrentDuplicateExactlyOneWins(t *testing.T) {
	st := memstore.New()
	mgr := NewRelationshipManager(st, defaultTrustConfig())
	ctx := context.Background()

	const attempts = 16
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = mgr.Follow(ctx, "USR-1", "USR-2")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		require.True(t, domain.IsKind(err, domain.KindConflict))
	}
	require.Equal(t, 1, successes)

	rep, _, err := st.GetReputation(ctx, "USR-2")
	require.NoError(t, err)
	require.Equal(t, 1, rep.Followers)
}

func TestUnfollowRemovesEdgeAndCounters(t *testing.T) {
	st := memstore.New()
	mgr := NewRelationshipManager(st, defaultTrustConfig())
	ctx := context.Background()

	_, err := mgr.Follow(ctx, "USR-1", "USR-2")
	require.NoError(t, err)
	require.NoError(t, mgr.Unfollow(ctx, "USR-1", "USR-2"))

	exists, err := st.EdgeExists(ctx, "USR-1", "USR-2")
	require.NoError(t, err)
	require.False(t, exists)

	follower, _, err := st.GetReputation(ctx, "USR-1")
	require.NoError(t, err)
	require.Equal(t, 0, follower.Following)

	followed, _, err := st.GetReputation(ctx, "USR-2")
	require.NoError(t, err)
	require.Equal(t, 0, followed.Followers)
}

func TestUnfollowMissingEdgeNotFound(t *testing.T) {
	mgr := NewRelationshipManager(memstore.New(), defaultTrustConfig())

	err := mgr.Unfollow(context.Background(), "USR-1", "USR-2")
	require.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestFollowUnfollowCycle(t *testing.T) {
	mgr := NewRelationshipManager(memstore.New(), defaultTrustConfig())
	ctx := context.Background()

	// Re-following after an unfollow must succeed.
	_, err := mgr.Follow(ctx, "USR-1", "USR-2")
	require.NoError(t, err)
	require.NoError(t, mgr.Unfollow(ctx, "USR-1", "USR-2"))
	_, err = mgr.Follow(ctx, "USR-1", "USR-2")
	require.NoError(t, err)
}

func TestListFollowingOrderAndPaging(t *testing.T) {
	st := memstore.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	mgr := NewRelationshipManager(st, defaultTrustConfig()).WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})
	ctx := context.Background()

	for _, target := range []string{"USR-2", "USR-3", "USR-4", "USR-5"} {
		_, err := mgr.Follow(ctx, "USR-1", target)
		require.NoError(t, err)
	}

	page, err := mgr.ListFollowing(ctx, "USR-1", store.ListOptions{Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 4, page.Total)
	require.Len(t, page.Items, 2)
	require.True(t, page.HasMore)
	require.Equal(t, "USR-2", page.Items[0].FollowedID)
	require.Equal(t, "USR-3", page.Items[1].FollowedID)

	page, err = mgr.ListFollowing(ctx, "USR-1", store.ListOptions{Offset: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.False(t, page.HasMore)
	require.Equal(t, "USR-4", page.Items[0].FollowedID)
	require.Equal(t, "USR-5", page.Items[1].FollowedID)
}

func TestListFollowersOfUnknownUserIsEmpty(t *testing.T) {
	mgr := NewRelationshipManager(memstore.New(), defaultTrustConfig())

	page, err := mgr.ListFollowers(context.Background(), "USR-404", store.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, 0, page.Total)
	require.Empty(t, page.Items)
	require.False(t, page.HasMore)
}
