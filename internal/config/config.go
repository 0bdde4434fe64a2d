package config

import "time"

// Config aggregates application configuration values. It is immutable
// after Load and safe for concurrent reads.
type Config struct {
	HTTP    HTTPConfig    `koanf:"http"`
	Store   StoreConfig   `koanf:"store"`
	Graph   GraphConfig   `koanf:"graph"`
	Badger  BadgerConfig  `koanf:"badger"`
	Engine  EngineConfig  `koanf:"engine"`
	Logging LoggingConfig `koanf:"logging"`
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	AllowedOriginsCSV string        `koanf:"allowed_origins"`
}

// StoreConfig selects the persistence backend for the engine stores.
type StoreConfig struct {
	// Backend is one of memory, badger, neo4j.
	Backend string `koanf:"backend" validate:"oneof=memory badger neo4j"`
}

// GraphConfig describes connectivity to the graph database when the
// neo4j backend is selected (Neptune's openCypher endpoint is wire
// compatible).
type GraphConfig struct {
	URI            string `koanf:"uri"`
	Database       string `koanf:"database"`
	Username       string `koanf:"username"`
	Password       string `koanf:"password"`
	MaxConnections int    `koanf:"max_connections" validate:"gte=1"`
}

// BadgerConfig locates the embedded store when the badger backend is
// selected.
type BadgerConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// EngineConfig carries the tunable policy values of the trust and
// reputation computations. Product tuning happens here, not in code.
type EngineConfig struct {
	Trust        TrustConfig        `koanf:"trust"`
	Reputation   ReputationConfig   `koanf:"reputation"`
	Verification VerificationConfig `koanf:"verification"`
	Explorer     ExplorerConfig     `koanf:"explorer"`
}

// TrustConfig holds the hop-weight schedule and engagement boost
// coefficients of the trust score calculator. DirectWeight and
// FriendOfFriendWeight are independent policy constants; the two-hop
// weight is not derived from the direct one.
type TrustConfig struct {
	DirectWeight         float64 `koanf:"direct_weight" validate:"gte=0,lte=1"`
	FriendOfFriendWeight float64 `koanf:"friend_of_friend_weight" validate:"gte=0,lte=1"`
	SelfTrust            float64 `koanf:"self_trust" validate:"gte=0,lte=1"`
	BoostCap             float64 `koanf:"boost_cap" validate:"gte=0,lte=1"`
	UpvoteBoost          float64 `koanf:"upvote_boost" validate:"gte=0"`
	SaveBoost            float64 `koanf:"save_boost" validate:"gte=0"`
	DefaultMaxDepth      int     `koanf:"default_max_depth" validate:"gte=1,lte=3"`
}

// ReputationConfig holds the scoring coefficients of the reputation
// aggregator. The resulting score is monotone up in upvotes and
// recommendations, monotone down in downvotes, saturating at 1.
type ReputationConfig struct {
	UpvoteWeight         float64 `koanf:"upvote_weight" validate:"gte=0"`
	RecommendationWeight float64 `koanf:"recommendation_weight" validate:"gte=0"`
	DownvotePenalty      float64 `koanf:"downvote_penalty" validate:"gte=0"`
	Saturation           float64 `koanf:"saturation" validate:"gt=0"`
}

// VerificationConfig holds the monotone score thresholds that map a
// reputation score to a verification level.
type VerificationConfig struct {
	VerifiedScore            float64 `koanf:"verified_score" validate:"gte=0,lte=1"`
	ExpertScore              float64 `koanf:"expert_score" validate:"gte=0,lte=1"`
	ExpertMinRecommendations int     `koanf:"expert_min_recommendations" validate:"gte=0"`
}

// ExplorerConfig bounds neighborhood exploration.
type ExplorerConfig struct {
	MaxDepth  int `koanf:"max_depth" validate:"gte=1,lte=3"`
	MaxFanout int `koanf:"max_fanout" validate:"gte=1"`
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string `koanf:"level"`
	Format        string `koanf:"format" validate:"oneof=text json"`
	IncludeCaller bool   `koanf:"include_caller"`
}

// Default returns the built-in configuration the file and environment
// layers override.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		Graph: GraphConfig{
			MaxConnections: 10,
		},
		Badger: BadgerConfig{
			Path: "./data/plateful",
		},
		Engine: EngineConfig{
			Trust: TrustConfig{
				DirectWeight:         0.75,
				FriendOfFriendWeight: 0.25,
				SelfTrust:            1.0,
				BoostCap:             0.2,
				UpvoteBoost:          0.1,
				SaveBoost:            0.05,
				DefaultMaxDepth:      2,
			},
			Reputation: ReputationConfig{
				UpvoteWeight:         1.0,
				RecommendationWeight: 0.5,
				DownvotePenalty:      1.5,
				Saturation:           50,
			},
			Verification: VerificationConfig{
				VerifiedScore:            0.4,
				ExpertScore:              0.75,
				ExpertMinRecommendations: 25,
			},
			Explorer: ExplorerConfig{
				MaxDepth:  2,
				MaxFanout: 25,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
