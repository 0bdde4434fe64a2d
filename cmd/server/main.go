package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/plateful/plateful/backend/internal/config"
	"github.com/plateful/plateful/backend/internal/graph"
	"github.com/plateful/plateful/backend/internal/logging"
	"github.com/plateful/plateful/backend/internal/server"
	"github.com/plateful/plateful/backend/internal/service"
	"github.com/plateful/plateful/backend/internal/store"
	"github.com/plateful/plateful/backend/internal/store/badgerstore"
	"github.com/plateful/plateful/backend/internal/store/memstore"
	"github.com/plateful/plateful/backend/internal/store/neostore"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

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
	apiHandlers := server.NewAPIHandlers(logger, engine)

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.StoreHealthService{Store: st},
		API:              apiHandlers,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func buildStore(ctx context.Context, logger *slog.Logger, cfg config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		logger.Warn("using in-memory store, data will not survive restarts")
		return memstore.New(), nil
	case "badger":
		return badgerstore.Open(badgerstore.Options{
			Path:     cfg.Badger.Path,
			InMemory: cfg.Badger.InMemory,
		})
	case "neo4j":
		if cfg.Graph.URI == "" {
			return nil, graph.ErrMissingURI
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
		return neostore.New(client), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
