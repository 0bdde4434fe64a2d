package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plateful/plateful/backend/internal/config"
	"github.com/plateful/plateful/backend/internal/store/memstore"
)

func newTestEngine(t *testing.T) (*Engine, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(st, config.Default().Engine, logger), st
}

func TestBuildNeighborhoodDepths(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	// USR-1 -> USR-2 -> USR-3; USR-1 -> USR-4.
	for _, pair := range [][2]string{{"USR-1", "USR-2"}, {"USR-2", "USR-3"}, {"USR-1", "USR-4"}} {
		_, err := engine.Relationships.Follow(ctx, pair[0], pair[1])
		require.NoError(t, err)
	}

	graph, err := engine.Explorer.BuildNeighborhood(ctx, "USR-1", 2)
	require.NoError(t, err)
	require.Equal(t, "USR-1", graph.RootID)
	require.Equal(t, 2, graph.MaxDepth)

	depths := make(map[string]int, len(graph.Nodes))
	for _, node := range graph.Nodes {
		depths[node.UserID] = node.Depth
	}
	require.Equal(t, map[string]int{"USR-1": 0, "USR-2": 1, "USR-4": 1, "USR-3": 2}, depths)

	require.Len(t, graph.Edges, 3)
	for _, edge := range graph.Edges {
		switch edge.Distance {
		case 1:
			require.Equal(t, 0.75, edge.TrustWeight)
		case 2:
			require.Equal(t, 0.25, edge.TrustWeight)
		default:
			t.Fatalf("unexpected edge distance %d", edge.Distance)
		}
	}
}

func TestBuildNeighborhoodFirstSeenDepthWins(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	// USR-3 is reachable both directly and through USR-2.
	for _, pair := range [][2]string{{"USR-1", "USR-2"}, {"USR-1", "USR-3"}, {"USR-2", "USR-3"}} {
		_, err := engine.Relationships.Follow(ctx, pair[0], pair[1])
		require.NoError(t, err)
	}

	graph, err := engine.Explorer.BuildNeighborhood(ctx, "USR-1", 2)
	require.NoError(t, err)

	occurrences := 0
	for _, node := range graph.Nodes {
		if node.UserID == "USR-3" {
			occurrences++
			require.Equal(t, 1, node.Depth)
		}
	}
	require.Equal(t, 1, occurrences)

	// Both edges into USR-3 are still reported.
	require.Len(t, graph.Edges, 3)
}

func TestBuildNeighborhoodDepthClamped(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	// Chain deeper than the configured maximum of 2.
	for _, pair := range [][2]string{{"USR-1", "USR-2"}, {"USR-2", "USR-3"}, {"USR-3", "USR-4"}} {
		_, err := engine.Relationships.Follow(ctx, pair[0], pair[1])
		require.NoError(t, err)
	}

	graph, err := engine.Explorer.BuildNeighborhood(ctx, "USR-1", 10)
	require.NoError(t, err)
	require.Equal(t, 2, graph.MaxDepth)

	for _, node := range graph.Nodes {
		require.LessOrEqual(t, node.Depth, 2)
		require.NotEqual(t, "USR-4", node.UserID)
	}
}

func TestBuildNeighborhoodFanoutCapped(t *testing.T) {
	st := memstore.New()
	cfg := config.Default().Engine
	cfg.Explorer.MaxFanout = 5
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := NewEngine(st, cfg, logger)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, err := engine.Relationships.Follow(ctx, "USR-1", fmt.Sprintf("USR-f%02d", i))
		require.NoError(t, err)
	}

	graph, err := engine.Explorer.BuildNeighborhood(ctx, "USR-1", 1)
	require.NoError(t, err)
	// Root plus at most MaxFanout neighbors.
	require.Len(t, graph.Nodes, 6)
	require.Len(t, graph.Edges, 5)
}

func TestBuildNeighborhoodUnknownUser(t *testing.T) {
	engine, _ := newTestEngine(t)

	graph, err := engine.Explorer.BuildNeighborhood(context.Background(), "USR-404", 2)
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 1)
	require.Equal(t, "USR-404", graph.Nodes[0].UserID)
	require.Empty(t, graph.Edges)
}

func TestBuildNeighborhoodAnnotatesReputation(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Relationships.Follow(ctx, "USR-1", "USR-2")
	require.NoError(t, err)
	for i := 0; i < 25; i++ {
		_, err = engine.Reputation.ApplyVote(ctx, "USR-2", true)
		require.NoError(t, err)
	}

	graph, err := engine.Explorer.BuildNeighborhood(ctx, "USR-1", 1)
	require.NoError(t, err)

	var found bool
	for _, node := range graph.Nodes {
		if node.UserID != "USR-2" {
			continue
		}
		found = true
		require.InDelta(t, 0.5, node.ReputationScore, 1e-9)
		require.Equal(t, 1, node.Followers)
	}
	require.True(t, found)
}

func TestBuildNeighborhoodRequiresUserID(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Explorer.BuildNeighborhood(context.Background(), "", 2)
	require.Error(t, err)
}
