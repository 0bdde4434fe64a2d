package generator

// Config drives the synthetic data generator.
type Config struct {
	NumUsers           int
	NumFollows         int
	NumVotes           int
	PopularUserChance  float64
	SpecializationRate float64
	UpvoteChance       float64
	Seed               int64
}

// DefaultConfig returns baseline settings that produce a realistic
// follow graph with a small set of heavily followed food critics.
func DefaultConfig() Config {
	return Config{
		NumUsers:           5000,
		NumFollows:         40000,
		NumVotes:           100000,
		PopularUserChance:  0.6,
		SpecializationRate: 0.7,
		UpvoteChance:       0.85,
		Seed:               42,
	}
}
