package revenue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/logging"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/tracing"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

// DefaultSmoothingWindowDays spreads a payout over a week
const DefaultSmoothingWindowDays = 7

// PayoutRepository is the storage the payout engine needs
type PayoutRepository interface {
	GetKycStatus(ctx context.Context, creatorID string) (*models.KycRecord, error)
	CreatePayout(ctx context.Context, p *models.Payout) error
	ListPayouts(ctx context.Context, creatorID string) ([]*models.Payout, error)
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// PayoutEngine computes smoothed payouts for verified creators
type PayoutEngine struct {
	aggregator *Aggregator
	repo       PayoutRepository
	scorer     PerformanceScorer
	publisher  EventPublisher
	windowDays int
	logger     *logging.Logger
}

// NewPayoutEngine creates a payout engine. A non-positive window selects
// DefaultSmoothingWindowDays.
func NewPayoutEngine(aggregator *Aggregator, repo PayoutRepository, scorer PerformanceScorer, publisher EventPublisher, windowDays int, logger *logging.Logger) *PayoutEngine {
	if windowDays <= 0 {
		windowDays = DefaultSmoothingWindowDays
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &PayoutEngine{
		aggregator: aggregator,
		repo:       repo,
		scorer:     scorer,
		publisher:  publisher,
		windowDays: windowDays,
		logger:     logger,
	}
}

// ComputePayout returns models.ErrKycNotVerified unless the creator's KYC is
// verified. Otherwise amount = total_revenue * performance / window, in cents.
// The payout is stored in the creator's history.
func (e *PayoutEngine) ComputePayout(ctx context.Context, creatorID string) (*models.Payout, error) {
	span, ctx := tracing.Start(ctx, "revenue.compute_payout", opentracing.Tags{"creator_id": creatorID})
	payout, err := e.computePayout(ctx, creatorID)
	span.End(err)

	switch {
	case err == nil:
		metrics.RecordPayout("success", payout.Amount)
	case errors.Is(err, models.ErrKycNotVerified):
		metrics.RecordPayout("kyc_not_verified", 0)
	default:
		metrics.RecordPayout("error", 0)
	}
	return payout, err
}

func (e *PayoutEngine) computePayout(ctx context.Context, creatorID string) (*models.Payout, error) {
	kyc, err := e.repo.GetKycStatus(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get kyc status: %w", err)
	}
	if kyc.Status != models.KycVerified {
		return nil, models.ErrKycNotVerified
	}

	summary, err := e.aggregator.AggregateRevenue(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	performance, err := e.scorer.PerformanceScore(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute performance score: %w", err)
	}

	payout := &models.Payout{
		ID:                  uuid.New().String(),
		CreatorID:           creatorID,
		TotalRevenue:        summary.TotalRevenue,
		PerformanceScore:    performance,
		SmoothingWindowDays: e.windowDays,
		Amount:              RoundCents(summary.TotalRevenue * performance / float64(e.windowDays)),
		KycStatus:           kyc.Status,
		CreatedAt:           time.Now().UTC(),
	}

	if err := e.repo.CreatePayout(ctx, payout); err != nil {
		return nil, fmt.Errorf("failed to store payout: %w", err)
	}

	if e.publisher != nil {
		if err := e.publisher.Publish(ctx, models.EventPayoutComputed, payout); err != nil {
			e.logger.WithCreatorID(creatorID).WithError(err).Warn("Failed to publish payout event")
		}
	}

	e.logger.LogPayout(creatorID, summary.TotalRevenue, performance, payout.Amount)
	return payout, nil
}

// History returns the creator's payouts, newest first
func (e *PayoutEngine) History(ctx context.Context, creatorID string) ([]*models.Payout, error) {
	return e.repo.ListPayouts(ctx, creatorID)
}
