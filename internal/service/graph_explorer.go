package service

import (
	"context"
	"log/slog"

	"github.com/plateful/plateful/backend/internal/config"
	"github.com/plateful/plateful/backend/internal/domain"
	"github.com/plateful/plateful/backend/internal/store"
)

// GraphExplorer builds a bounded-depth view of a user's follow
// neighborhood for presentation. Exploration degrades gracefully: an
// error expanding one node is logged and skipped so the rest of the
// picture survives.
type GraphExplorer struct {
	store       store.RelationshipStore
	reputations store.ReputationStore
	trust       *TrustCalculator
	cfg         config.ExplorerConfig
	logger      *slog.Logger
}

// NewGraphExplorer constructs a GraphExplorer annotating edges with the
// calculator's hop weights.
func NewGraphExplorer(st store.Store, trust *TrustCalculator, cfg config.ExplorerConfig, logger *slog.Logger) *GraphExplorer {
	return &GraphExplorer{
		store:       st,
		reputations: st,
		trust:       trust,
		cfg:         cfg,
		logger:      logger,
	}
}

// BuildNeighborhood runs a breadth-first expansion from userID. Each
// node is recorded once at its first-seen depth; every traversed edge
// is recorded with its hop distance. Per-level fan-out is capped by
// configuration to bound the response.
func (e *GraphExplorer) BuildNeighborhood(ctx context.Context, userID string, maxDepth int) (domain.Neighborhood, error) {
	if userID == "" {
		return domain.Neighborhood{}, domain.NewError(domain.KindInvalidOperation, "user ID is required")
	}
	if maxDepth <= 0 || maxDepth > e.cfg.MaxDepth {
		maxDepth = e.cfg.MaxDepth
	}

	neighborhood := domain.Neighborhood{
		RootID:   userID,
		MaxDepth: maxDepth,
		Nodes:    []domain.GraphNode{e.nodeAt(ctx, userID, 0)},
		Edges:    []domain.GraphEdge{},
	}

	seen := map[string]int{userID: 0}
	frontier := []string{userID}

	for depth := 0; depth < maxDepth; depth++ {
		var next []string
		for _, current := range frontier {
			if err := ctx.Err(); err != nil {
				return neighborhood, domain.WrapInternal("neighborhood exploration cancelled", err)
			}

			page, err := e.store.ListByFollower(ctx, current, store.ListOptions{Limit: e.cfg.MaxFanout})
			if err != nil {
				// Partial graphs beat a blank response; skip this branch.
				e.logger.Warn("skipping neighborhood branch",
					"userId", current,
					"depth", depth,
					"error", err,
				)
				continue
			}

			for _, edge := range page.Items {
				distance := depth + 1
				neighborhood.Edges = append(neighborhood.Edges, domain.GraphEdge{
					SourceID:    edge.FollowerID,
					TargetID:    edge.FollowedID,
					Distance:    distance,
					TrustWeight: e.trust.WeightAtDistance(distance),
				})

				if _, ok := seen[edge.FollowedID]; ok {
					continue
				}
				seen[edge.FollowedID] = distance
				neighborhood.Nodes = append(neighborhood.Nodes, e.nodeAt(ctx, edge.FollowedID, distance))
				next = append(next, edge.FollowedID)
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}

	return neighborhood, nil
}

func (e *GraphExplorer) nodeAt(ctx context.Context, userID string, depth int) domain.GraphNode {
	node := domain.GraphNode{
		UserID:            userID,
		Depth:             depth,
		VerificationLevel: domain.VerificationBasic,
	}

	rep, found, err := e.reputations.GetReputation(ctx, userID)
	if err != nil {
		e.logger.Warn("reputation lookup failed during exploration", "userId", userID, "error", err)
		return node
	}
	if found {
		node.ReputationScore = rep.ReputationScore
		node.VerificationLevel = rep.VerificationLevel
		node.Followers = rep.Followers
		node.Following = rep.Following
	}
	return node
}
