package database

import (
	"context"
	"fmt"
	"time"

	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

// CreatePayout stores a computed payout
func (r *Repository) CreatePayout(ctx context.Context, p *models.Payout) (err error) {
	defer r.observe("create_payout", time.Now(), &err)
	newID(&p.ID)

	query := `
		INSERT INTO payouts (id, creator_id, total_revenue, performance_score, smoothing_window_days, amount, kyc_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err = r.db.Pool.QueryRow(ctx, query,
		p.ID, p.CreatorID, p.TotalRevenue, p.PerformanceScore, p.SmoothingWindowDays, p.Amount, string(p.KycStatus),
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payout: %w", err)
	}
	return nil
}

// ListPayouts retrieves a creator's payouts, newest first
func (r *Repository) ListPayouts(ctx context.Context, creatorID string) (payouts []*models.Payout, err error) {
	defer r.observe("list_payouts", time.Now(), &err)

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, creator_id, total_revenue, performance_score, smoothing_window_days, amount, kyc_status, created_at
		FROM payouts
		WHERE creator_id = $1
		ORDER BY created_at DESC
	`, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	defer rows.Close()

	payouts = make([]*models.Payout, 0)
	for rows.Next() {
		var (
			p      models.Payout
			status string
		)
		if err := rows.Scan(&p.ID, &p.CreatorID, &p.TotalRevenue, &p.PerformanceScore,
			&p.SmoothingWindowDays, &p.Amount, &status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		p.KycStatus = models.KycStatus(status)
		payouts = append(payouts, &p)
	}
	return payouts, rows.Err()
}

// UpsertRevenueSnapshot stores a monthly snapshot, replacing any earlier
// snapshot for the same creator and month
func (r *Repository) UpsertRevenueSnapshot(ctx context.Context, snap *models.RevenueSnapshot) (err error) {
	defer r.observe("upsert_revenue_snapshot", time.Now(), &err)

	query := `
		INSERT INTO revenue_snapshots (creator_id, year, month, subscription_revenue, one_time_revenue,
			total_revenue, total_subscribers, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (creator_id, year, month) DO UPDATE
		SET subscription_revenue = EXCLUDED.subscription_revenue,
		    one_time_revenue = EXCLUDED.one_time_revenue,
		    total_revenue = EXCLUDED.total_revenue,
		    total_subscribers = EXCLUDED.total_subscribers,
		    recorded_at = EXCLUDED.recorded_at
		RETURNING recorded_at
	`
	err = r.db.Pool.QueryRow(ctx, query,
		snap.CreatorID, snap.Year, snap.Month, snap.SubscriptionRevenue, snap.OneTimeRevenue,
		snap.TotalRevenue, snap.TotalSubscribers,
	).Scan(&snap.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert revenue snapshot: %w", err)
	}
	return nil
}

// ListRevenueSnapshots retrieves a creator's snapshots, newest month first
func (r *Repository) ListRevenueSnapshots(ctx context.Context, creatorID string) (snaps []*models.RevenueSnapshot, err error) {
	defer r.observe("list_revenue_snapshots", time.Now(), &err)

	rows, err := r.db.Pool.Query(ctx, `
		SELECT creator_id, year, month, subscription_revenue, one_time_revenue, total_revenue, total_subscribers, recorded_at
		FROM revenue_snapshots
		WHERE creator_id = $1
		ORDER BY year DESC, month DESC
	`, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list revenue snapshots: %w", err)
	}
	defer rows.Close()

	snaps = make([]*models.RevenueSnapshot, 0)
	for rows.Next() {
		var s models.RevenueSnapshot
		if err := rows.Scan(&s.CreatorID, &s.Year, &s.Month, &s.SubscriptionRevenue, &s.OneTimeRevenue,
			&s.TotalRevenue, &s.TotalSubscribers, &s.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan revenue snapshot: %w", err)
		}
		snaps = append(snaps, &s)
	}
	return snaps, rows.Err()
}
