package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/plateful/plateful/backend/internal/config"
	"github.com/plateful/plateful/backend/internal/graph"
	"github.com/plateful/plateful/backend/internal/logging"
	"github.com/plateful/plateful/backend/internal/service"
	"github.com/plateful/plateful/backend/internal/store"
	"github.com/plateful/plateful/backend/internal/store/badgerstore"
	"github.com/plateful/plateful/backend/internal/store/neostore"
)

var (
	errMissingDataset = errors.New("dataset not found")
)

func main() {
	var (
		datasetDir = flag.String("dataset-dir", "./seed-data", "Directory containing users.json, follows.json and votes.json")
		usersPath  = flag.String("users", "", "Path to users.json (overrides dataset-dir)")
		follows    = flag.String("follows", "", "Path to follows.json (overrides dataset-dir)")
		votes      = flag.String("votes", "", "Path to votes.json (overrides dataset-dir)")
		workers    = flag.Int("workers", 4, "Number of concurrent workers for ingestion")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "ingest")

	userFile, followFile, voteFile, err := resolveDatasetPaths(*datasetDir, *usersPath, *follows, *votes)
	if err != nil {
		logger.Error("dataset resolution failed", "error", err)
		os.Exit(1)
	}

	var userSeeds []service.UserSeed
	if err := loadJSON(userFile, &userSeeds); err != nil {
		logger.Error("failed to load users", "error", err, "path", userFile)
		os.Exit(1)
	}
	if len(userSeeds) == 0 {
		logger.Error("users dataset empty", "path", userFile)
		os.Exit(1)
	}

	var followSeeds []service.FollowSeed
	if err := loadJSON(followFile, &followSeeds); err != nil {
		logger.Error("failed to load follows", "error", err, "path", followFile)
		os.Exit(1)
	}

	var voteSeeds []service.VoteSeed
	if err := loadJSON(voteFile, &voteSeeds); err != nil {
		logger.Error("failed to load votes", "error", err, "path", voteFile)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := buildStore(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to create store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			logger.Warn("closing store failed", "error", err)
		}
	}()

	engine := service.NewEngine(st, cfg.Engine, logger)
	ingestor := service.NewBulkIngestor(engine, *workers)

	start := time.Now()
	logger.Info("ingesting users", "count", len(userSeeds), "workers", *workers)
	if err := ingestor.IngestUsers(ctx, userSeeds); err != nil {
		logger.Error("user ingestion failed", "error", err)
		os.Exit(1)
	}

	logger.Info("ingesting follows", "count", len(followSeeds))
	if err := ingestor.IngestFollows(ctx, followSeeds); err != nil {
		logger.Error("follow ingestion failed", "error", err)
		os.Exit(1)
	}

	logger.Info("ingesting votes", "count", len(voteSeeds))
	if err := ingestor.IngestVotes(ctx, voteSeeds); err != nil {
		logger.Error("vote ingestion failed", "error", err)
		os.Exit(1)
	}

	logger.Info("ingestion complete",
		"duration", time.Since(start).String(),
		"users", len(userSeeds),
		"follows", len(followSeeds),
		"votes", len(voteSeeds),
	)
}

func resolveDatasetPaths(baseDir, usersPath, followsPath, votesPath string) (string, string, string, error) {
	resolve := func(explicitPath, fallbackFile string) (string, error) {
		if explicitPath != "" {
			if _, err := os.Stat(explicitPath); err != nil {
				return "", fmt.Errorf("stat %s: %w", explicitPath, err)
			}
			return explicitPath, nil
		}
		path := filepath.Join(baseDir, fallbackFile)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", errMissingDataset, path)
		}
		return path, nil
	}

	userFile, err := resolve(usersPath, "users.json")
	if err != nil {
		return "", "", "", err
	}
	followFile, err := resolve(followsPath, "follows.json")
	if err != nil {
		return "", "", "", err
	}
	voteFile, err := resolve(votesPath, "votes.json")
	if err != nil {
		return "", "", "", err
	}
	return userFile, followFile, voteFile, nil
}

func loadJSON(path string, target any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func buildStore(ctx context.Context, logger *slog.Logger, cfg config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "badger":
		return badgerstore.Open(badgerstore.Options{
			Path:     cfg.Badger.Path,
			InMemory: cfg.Badger.InMemory,
		})
	case "neo4j":
		if cfg.Graph.URI == "" {
			return nil, fmt.Errorf("graph URI is required for ingestion")
		}
		client, err := graph.NewNeo4jClient(ctx, graph.Options{
			URI:            cfg.Graph.URI,
			Database:       cfg.Graph.Database,
			Username:       cfg.Graph.Username,
			Password:       cfg.Graph.Password,
			MaxConnections: cfg.Graph.MaxConnections,
		})
		if err != nil {
			return nil, err
		}
		if err := client.VerifyConnectivity(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, err
		}
		logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
		return neostore.New(client), nil
	default:
		return nil, fmt.Errorf("ingestion requires a durable backend, got %q", cfg.Store.Backend)
	}
}
