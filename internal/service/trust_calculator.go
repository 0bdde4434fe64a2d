package service

import (
	"context"
	"math"

	"github.com/plateful/plateful/backend/internal/config"
	"github.com/plateful/plateful/backend/internal/store"
)

// Engagement carries per-content interaction counts used to boost a
// trust score when it is evaluated against a specific recommendation.
type Engagement struct {
	Upvotes int
	Saves   int
}

// TrustCalculator derives a bounded [0,1] trust score between two users
// from their graph distance. The hop weights come from configuration;
// only depths 1 and 2 carry weight, anything further scores zero.
type TrustCalculator struct {
	store store.RelationshipStore
	cfg   config.TrustConfig
}

// NewTrustCalculator constructs a TrustCalculator.
func NewTrustCalculator(st store.RelationshipStore, cfg config.TrustConfig) *TrustCalculator {
	return &TrustCalculator{store: st, cfg: cfg}
}

// Score computes the pairwise trust score without engagement context.
// A non-positive maxDepth falls back to the configured default.
func (c *TrustCalculator) Score(ctx context.Context, sourceID, targetID string, maxDepth int) (float64, error) {
	return c.ScoreWithEngagement(ctx, sourceID, targetID, maxDepth, Engagement{})
}

// ScoreWithEngagement computes the trust score including the additive
// engagement boost. Absence of any path is a normal zero result, not an
// error; only store failures propagate.
func (c *TrustCalculator) ScoreWithEngagement(ctx context.Context, sourceID, targetID string, maxDepth int, eng Engagement) (float64, error) {
	if sourceID == "" || targetID == "" {
		return 0, nil
	}
	if maxDepth <= 0 {
		maxDepth = c.cfg.DefaultMaxDepth
	}

	base, err := c.baseTrust(ctx, sourceID, targetID, maxDepth)
	if err != nil {
		return 0, err
	}

	boost := math.Min(c.cfg.BoostCap, float64(eng.Upvotes)*c.cfg.UpvoteBoost+float64(eng.Saves)*c.cfg.SaveBoost)
	return roundToThousandths(math.Min(1.0, base+boost)), nil
}

func (c *TrustCalculator) baseTrust(ctx context.Context, sourceID, targetID string, maxDepth int) (float64, error) {
	if sourceID == targetID {
		return c.cfg.SelfTrust, nil
	}

	edge, found, err := c.store.GetEdge(ctx, sourceID, targetID)
	if err != nil {
		return 0, err
	}
	if found {
		return edge.TrustWeight, nil
	}

	if maxDepth >= 2 {
		connected, err := c.store.HasTwoHopPath(ctx, sourceID, targetID)
		if err != nil {
			return 0, err
		}
		if connected {
			return c.cfg.FriendOfFriendWeight, nil
		}
	}
	return 0, nil
}

// WeightAtDistance is the weight the calculator assigns to a path of
// the given hop length, used by the graph explorer to annotate edges.
func (c *TrustCalculator) WeightAtDistance(distance int) float64 {
	switch distance {
	case 0:
		return c.cfg.SelfTrust
	case 1:
		return c.cfg.DirectWeight
	case 2:
		return c.cfg.FriendOfFriendWeight
	default:
		return 0
	}
}

// roundToThousandths rounds half away from zero to three decimal
// places; downstream consumers compare scores for equality after this
// rounding.
func roundToThousandths(v float64) float64 {
	return math.Round(v*1000) / 1000
}
