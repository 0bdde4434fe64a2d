package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/plateful/plateful/backend/internal/domain"
)

func edgeAt(follower, followed string, createdAt time.Time) domain.UserRelationship {
	return domain.UserRelationship{FollowerID: follower, FollowedID: followed, CreatedAt: createdAt}
}

func TestNormalizeList(t *testing.T) {
	opts := NormalizeList(ListOptions{})
	require.Equal(t, 0, opts.Offset)
	require.Equal(t, DefaultListLimit, opts.Limit)

	opts = NormalizeList(ListOptions{Offset: -5, Limit: 10_000})
	require.Equal(t, 0, opts.Offset)
	require.Equal(t, MaxListLimit, opts.Limit)
}

func TestSortEdgesByCreationThenCounterpart(t *testing.T) {
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	edges := []domain.UserRelationship{
		edgeAt("USR-1", "USR-4", base.Add(2*time.Second)),
		edgeAt("USR-1", "USR-3", base.Add(time.Second)),
		edgeAt("USR-1", "USR-2", base.Add(2*time.Second)),
	}

	SortEdges(edges, true)
	require.Equal(t, "USR-3", edges[0].FollowedID)
	// Equal timestamps fall back to the counterpart ID.
	require.Equal(t, "USR-2", edges[1].FollowedID)
	require.Equal(t, "USR-4", edges[2].FollowedID)
}

func TestPaginateEdgesOffsetPastEnd(t *testing.T) {
	base := time.Now().UTC()
	edges := []domain.UserRelationship{
		edgeAt("USR-1", "USR-2", base),
		edgeAt("USR-1", "USR-3", base),
	}

	page := PaginateEdges(edges, ListOptions{Offset: 10, Limit: 5})
	require.Empty(t, page.Items)
	require.Equal(t, 2, page.Total)
	require.False(t, page.HasMore)
}
