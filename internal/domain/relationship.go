package domain

import "time"

// UserRelationship is a directed follow edge. It is immutable once
// created and removed wholesale on unfollow; FollowerID and FollowedID
// are always distinct.
type UserRelationship struct {
	ID          string
	FollowerID  string
	FollowedID  string
	TrustWeight float64
	CreatedAt   time.Time
}

// RelationshipPage is one page of follow edges together with pagination
// metadata. Ordering is stable: edge creation time, ties broken by the
// counterpart user ID.
type RelationshipPage struct {
	Items   []UserRelationship
	Total   int
	Offset  int
	Limit   int
	HasMore bool
}
