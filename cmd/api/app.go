package main

import (
	"context"

	"github.com/therealutkarshpriyadarshi/creatorhub/internal/access"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/config"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/content"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/logging"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/membership"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/revenue"
)

// Store is everything the services read and write. memstore.Store and
// database.Repository both implement it.
type Store interface {
	membership.Repository
	content.Repository
	revenue.SalesRepository
	revenue.PayoutRepository
	revenue.SnapshotRepository
	revenue.ContentLister
	Ping(ctx context.Context) error
}

// Publisher publishes domain events
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// HealthCheck reports whether one dependency is usable
type HealthCheck func(ctx context.Context) error

// Deps are the infrastructure pieces the API is built from. Optional
// fields are left nil when the backing service is not configured.
type Deps struct {
	Store     Store
	Publisher Publisher

	// Lookup reads subscriptions for access checks. Defaults to Store.
	Lookup access.SubscriptionLookup
	Files  content.FileStore
	Cache  membership.SubscriptionCache

	Health map[string]HealthCheck
}

// API holds the services behind the HTTP handlers
type API struct {
	membership *membership.Service
	content    *content.Service
	payouts    *revenue.PayoutEngine
	snapshots  *revenue.SnapshotJob
	health     map[string]HealthCheck
	logger     *logging.Logger
}

// NewAPI builds the services from configuration and dependencies
func NewAPI(cfg *config.Config, deps Deps, logger *logging.Logger) *API {
	lookup := deps.Lookup
	if lookup == nil {
		lookup = deps.Store
	}

	health := map[string]HealthCheck{"store": deps.Store.Ping}
	for name, check := range deps.Health {
		health[name] = check
	}

	aggregator := revenue.NewAggregator(deps.Store)
	evaluator := access.NewEvaluator(lookup, deps.Store, cfg.Access.LookupTimeout, logger)

	var scorer revenue.PerformanceScorer = revenue.StaticScorer(cfg.Payout.PerformanceScore)
	if cfg.Payout.PerformanceSource == "content" {
		scorer = revenue.NewContentQualityScorer(deps.Store, cfg.Payout.PerformanceScore)
	}

	return &API{
		membership: membership.NewService(deps.Store, aggregator, deps.Publisher, deps.Cache, membership.Config{
			MaxTiersPerCreator: cfg.Membership.MaxTiersPerCreator,
			AllowedPrices:      cfg.Membership.AllowedPrices,
		}, logger),
		content:   content.NewService(deps.Store, evaluator, deps.Files, deps.Publisher, logger),
		payouts:   revenue.NewPayoutEngine(aggregator, deps.Store, scorer, deps.Publisher, cfg.Payout.SmoothingWindowDays, logger),
		snapshots: revenue.NewSnapshotJob(aggregator, deps.Store, logger),
		health:    health,
		logger:    logger,
	}
}
