package service

import (
	"log/slog"

	"github.com/plateful/plateful/backend/internal/config"
	"github.com/plateful/plateful/backend/internal/store"
)

// Engine bundles the four engine components over one store backend.
// The engine itself is stateless; all shared mutable state lives in
// the store, so Engine methods are safe to call from any goroutine.
type Engine struct {
	Relationships *RelationshipManager
	Trust         *TrustCalculator
	Reputation    *ReputationAggregator
	Explorer      *GraphExplorer
}

// NewEngine wires the components against the supplied store and policy
// configuration.
func NewEngine(st store.Store, cfg config.EngineConfig, logger *slog.Logger) *Engine {
	trust := NewTrustCalculator(st, cfg.Trust)
	return &Engine{
		Relationships: NewRelationshipManager(st, cfg.Trust),
		Trust:         trust,
		Reputation:    NewReputationAggregator(st, cfg.Reputation, cfg.Verification),
		Explorer:      NewGraphExplorer(st, trust, cfg.Explorer, logger),
	}
}
