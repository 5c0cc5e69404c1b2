package revenue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/therealutkarshpriyadarshi/creatorhub/internal/logging"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

// SnapshotRepository stores monthly revenue snapshots
type SnapshotRepository interface {
	ListCreatorIDs(ctx context.Context) ([]string, error)
	UpsertRevenueSnapshot(ctx context.Context, snap *models.RevenueSnapshot) error
	ListRevenueSnapshots(ctx context.Context, creatorID string) ([]*models.RevenueSnapshot, error)
}

// SnapshotJob records the current month's revenue of every creator
type SnapshotJob struct {
	aggregator *Aggregator
	repo       SnapshotRepository
	logger     *logging.Logger
	now        func() time.Time
}

// NewSnapshotJob creates a snapshot job
func NewSnapshotJob(aggregator *Aggregator, repo SnapshotRepository, logger *logging.Logger) *SnapshotJob {
	if logger == nil {
		logger = logging.Nop()
	}
	return &SnapshotJob{
		aggregator: aggregator,
		repo:       repo,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Name identifies the job for scheduling and locking
func (j *SnapshotJob) Name() string {
	return "revenue-snapshot"
}

// Run snapshots every creator. A failing creator does not stop the others;
// all failures are returned joined.
func (j *SnapshotJob) Run(ctx context.Context) error {
	creators, err := j.repo.ListCreatorIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list creators: %w", err)
	}

	now := j.now()
	var errs []error
	for _, creatorID := range creators {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := j.snapshot(ctx, creatorID, now)
		metrics.RecordRevenueSnapshot(err)
		if err != nil {
			j.logger.WithCreatorID(creatorID).WithError(err).Error("Failed to record revenue snapshot")
			errs = append(errs, fmt.Errorf("creator %s: %w", creatorID, err))
		}
	}

	j.logger.Infof("Recorded revenue snapshots for %d creators", len(creators)-len(errs))
	return errors.Join(errs...)
}

func (j *SnapshotJob) snapshot(ctx context.Context, creatorID string, now time.Time) error {
	summary, err := j.aggregator.AggregateRevenue(ctx, creatorID)
	if err != nil {
		return err
	}
	return j.repo.UpsertRevenueSnapshot(ctx, &models.RevenueSnapshot{
		CreatorID:           creatorID,
		Year:                now.Year(),
		Month:               int(now.Month()),
		SubscriptionRevenue: summary.SubscriptionRevenue,
		OneTimeRevenue:      summary.OneTimeRevenue,
		TotalRevenue:        summary.TotalRevenue,
		TotalSubscribers:    summary.TotalSubscribers,
		RecordedAt:          now,
	})
}

// Snapshots returns a creator's recorded snapshots, newest month first
func (j *SnapshotJob) Snapshots(ctx context.Context, creatorID string) ([]*models.RevenueSnapshot, error) {
	return j.repo.ListRevenueSnapshots(ctx, creatorID)
}
