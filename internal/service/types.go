package service

// UserSeed is the inbound payload accepted by the bulk ingestor for a
// user profile.
type UserSeed struct {
	ID              string   `json:"id"`
	Specializations []string `json:"specializations,omitempty"`
}

// FollowSeed is the inbound payload accepted by the bulk ingestor for a
// follow edge.
type FollowSeed struct {
	FollowerID string `json:"followerId"`
	FollowedID string `json:"followedId"`
}

// VoteSeed is the inbound payload accepted by the bulk ingestor for a
// historical vote.
type VoteSeed struct {
	AuthorID string `json:"authorId"`
	Upvote   bool   `json:"upvote"`
}
