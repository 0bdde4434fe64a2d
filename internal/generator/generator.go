package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/plateful/plateful/backend/internal/service"
)

// Dataset contains the generated users, follow edges and votes.
type Dataset struct {
	Users   []service.UserSeed   `json:"users"`
	Follows []service.FollowSeed `json:"follows"`
	Votes   []service.VoteSeed   `json:"votes"`
}

// Generator produces synthetic social graph data aligned with the
// reputation engine schema.
type Generator struct {
	cfg     Config
	rand    *rand.Rand
	cuisine []string
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	if cfg.NumUsers <= 0 {
		cfg.NumUsers = DefaultConfig().NumUsers
	}
	if cfg.NumFollows <= 0 {
		cfg.NumFollows = DefaultConfig().NumFollows
	}
	if cfg.NumVotes <= 0 {
		cfg.NumVotes = DefaultConfig().NumVotes
	}
	if cfg.PopularUserChance <= 0 {
		cfg.PopularUserChance = DefaultConfig().PopularUserChance
	}
	if cfg.SpecializationRate <= 0 {
		cfg.SpecializationRate = DefaultConfig().SpecializationRate
	}
	if cfg.UpvoteChance <= 0 {
		cfg.UpvoteChance = DefaultConfig().UpvoteChance
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:     cfg,
		rand:    rand.New(rand.NewSource(cfg.Seed)),
		cuisine: defaultCuisines(),
	}
}

// Generate synthesises users, follows and votes. It respects context
// cancellation. The follow graph uses preferential attachment: users
// who already picked up followers keep attracting more, which matches
// the skew real follow graphs show.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	users := make([]service.UserSeed, g.cfg.NumUsers)
	for i := 0; i < g.cfg.NumUsers; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		users[i] = service.UserSeed{
			ID:              fmt.Sprintf("USR-%06d", i+1),
			Specializations: g.randomSpecializations(),
		}
	}

	follows := make([]service.FollowSeed, 0, g.cfg.NumFollows)
	seen := make(map[string]struct{}, g.cfg.NumFollows)
	// followedPool accumulates one entry per received follow, so
	// sampling from it is weighted by follower count.
	followedPool := make([]int, 0, g.cfg.NumFollows)

	for len(follows) < g.cfg.NumFollows {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}

		followerIdx := g.rand.Intn(len(users))
		followedIdx := g.pickFollowed(followedPool)
		if followedIdx == followerIdx {
			followedIdx = (followedIdx + 1) % len(users)
		}

		key := fmt.Sprintf("%d>%d", followerIdx, followedIdx)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		followedPool = append(followedPool, followedIdx)

		follows = append(follows, service.FollowSeed{
			FollowerID: users[followerIdx].ID,
			FollowedID: users[followedIdx].ID,
		})
	}

	votes := make([]service.VoteSeed, g.cfg.NumVotes)
	for i := 0; i < g.cfg.NumVotes; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		// Votes also skew toward well-followed authors.
		authorIdx := g.pickFollowed(followedPool)
		votes[i] = service.VoteSeed{
			AuthorID: users[authorIdx].ID,
			Upvote:   g.rand.Float64() < g.cfg.UpvoteChance,
		}
	}

	return Dataset{Users: users, Follows: follows, Votes: votes}, nil
}

func (g *Generator) pickFollowed(pool []int) int {
	if len(pool) > 0 && g.rand.Float64() < g.cfg.PopularUserChance {
		return pool[g.rand.Intn(len(pool))]
	}
	return g.rand.Intn(g.cfg.NumUsers)
}

func (g *Generator) randomSpecializations() []string {
	if g.rand.Float64() >= g.cfg.SpecializationRate {
		return nil
	}
	count := 1 + g.rand.Intn(3)
	picked := make([]string, 0, count)
	used := make(map[string]struct{}, count)
	for len(picked) < count {
		c := g.cuisine[g.rand.Intn(len(g.cuisine))]
		if _, dup := used[c]; dup {
			continue
		}
		used[c] = struct{}{}
		picked = append(picked, c)
	}
	return picked
}

func defaultCuisines() []string {
	return []string{
		"italian", "japanese", "mexican", "thai", "indian", "french",
		"korean", "vietnamese", "ethiopian", "peruvian", "bbq", "vegan",
		"seafood", "ramen", "dim-sum", "street-food", "pastry", "wine",
	}
}
