// Package revenue aggregates creator revenue and computes KYC-gated payouts.
package revenue

import (
	"context"
	"fmt"
	"math"

	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
	"golang.org/x/sync/errgroup"
)

// SalesRepository lists the priced items a creator sells
type SalesRepository interface {
	ListTiersByCreator(ctx context.Context, creatorID string) ([]*models.Tier, error)
	ListPurchasesByCreator(ctx context.Context, creatorID string) ([]*models.OneTimePurchase, error)
}

// Aggregator sums a creator's subscription and one-time revenue
type Aggregator struct {
	repo SalesRepository
}

// NewAggregator creates a new aggregator
func NewAggregator(repo SalesRepository) *Aggregator {
	return &Aggregator{repo: repo}
}

// AggregateRevenue returns the creator's revenue summary. Tiers and purchase
// items are fetched concurrently; negative counts count as zero.
func (a *Aggregator) AggregateRevenue(ctx context.Context, creatorID string) (*models.RevenueSummary, error) {
	var (
		tiers     []*models.Tier
		purchases []*models.OneTimePurchase
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tiers, err = a.repo.ListTiersByCreator(gctx, creatorID)
		if err != nil {
			return fmt.Errorf("failed to list tiers: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		purchases, err = a.repo.ListPurchasesByCreator(gctx, creatorID)
		if err != nil {
			return fmt.Errorf("failed to list purchases: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &models.RevenueSummary{
		CreatorID:  creatorID,
		TotalTiers: len(tiers),
	}
	for _, t := range tiers {
		count := nonNegative(t.SubscriberCount)
		summary.SubscriptionRevenue += t.Price * float64(count)
		summary.TotalSubscribers += count
	}
	for _, p := range purchases {
		count := nonNegative(p.PurchaseCount)
		summary.OneTimeRevenue += p.Price * float64(count)
		summary.TotalPurchases += count
	}

	summary.SubscriptionRevenue = RoundCents(summary.SubscriptionRevenue)
	summary.OneTimeRevenue = RoundCents(summary.OneTimeRevenue)
	summary.TotalRevenue = RoundCents(summary.SubscriptionRevenue + summary.OneTimeRevenue)
	return summary, nil
}

// RoundCents rounds an amount of money to two decimal places
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
