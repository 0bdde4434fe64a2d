package store

import (
	"sort"

	"github.com/plateful/plateful/backend/internal/domain"
)

// SortEdges orders edges by creation time, ties broken by the
// counterpart user ID. ByFollower selects the followed ID as the
// counterpart; otherwise the follower ID is used.
func SortEdges(edges []domain.UserRelationship, byFollower bool) {
	counterpart := func(e *domain.UserRelationship) string {
		if byFollower {
			return e.FollowedID
		}
		return e.FollowerID
	}
	sort.Slice(edges, func(i, j int) bool {
		if !edges[i].CreatedAt.Equal(edges[j].CreatedAt) {
			return edges[i].CreatedAt.Before(edges[j].CreatedAt)
		}
		return counterpart(&edges[i]) < counterpart(&edges[j])
	})
}

// PaginateEdges slices a fully sorted edge list into one page with
// pagination metadata.
func PaginateEdges(edges []domain.UserRelationship, opts ListOptions) domain.RelationshipPage {
	opts = NormalizeList(opts)
	total := len(edges)

	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}

	items := append([]domain.UserRelationship(nil), edges[start:end]...)
	return domain.RelationshipPage{
		Items:   items,
		Total:   total,
		Offset:  opts.Offset,
		Limit:   opts.Limit,
		HasMore: opts.Offset+len(items) < total,
	}
}
