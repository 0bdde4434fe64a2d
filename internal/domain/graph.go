package domain

// GraphNode is a user visited during neighborhood exploration. Depth is
// the hop distance at which the node was first seen.
type GraphNode struct {
	UserID            string
	Depth             int
	ReputationScore   float64
	VerificationLevel VerificationLevel
	Followers         int
	Following         int
}

// GraphEdge is a traversed follow edge annotated with the hop distance
// of its target and the trust weight assigned at that distance.
type GraphEdge struct {
	SourceID    string
	TargetID    string
	Distance    int
	TrustWeight float64
}

// Neighborhood is a bounded-depth view of a user's follow graph. Nodes
// are de-duplicated; edges include every traversal recorded before the
// per-level fan-out cap was reached.
type Neighborhood struct {
	RootID   string
	MaxDepth int
	Nodes    []GraphNode
	Edges    []GraphEdge
}
