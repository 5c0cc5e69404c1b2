package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/logging"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

// Repository provides database operations
type Repository struct {
	db     *DB
	logger *logging.Logger
}

// NewRepository creates a new repository. A nil logger discards query logs.
func NewRepository(db *DB, logger *logging.Logger) *Repository {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Repository{db: db, logger: logger}
}

// Ping checks the connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// observe records a finished query. A miss is not a failure.
func (r *Repository) observe(operation string, start time.Time, errp *error) {
	err := *errp
	if errors.Is(err, models.ErrNotFound) {
		err = nil
	}
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordDatabaseOperation(operation, status, duration.Seconds())
	r.logger.LogDatabaseOperation(operation, duration, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func newID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}

// Tiers

const tierColumns = `id, creator_id, name, price, benefits, subscriber_count, created_at, updated_at`

func scanTier(row pgx.Row) (*models.Tier, error) {
	var t models.Tier
	err := row.Scan(&t.ID, &t.CreatorID, &t.Name, &t.Price, &t.Benefits, &t.SubscriberCount, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if t.Benefits == nil {
		t.Benefits = []string{}
	}
	return &t, nil
}

// CreateTier inserts a tier. When maxTiers is positive the creator's tier
// count is checked under a per-creator advisory lock.
func (r *Repository) CreateTier(ctx context.Context, tier *models.Tier, maxTiers int) (err error) {
	defer r.observe("create_tier", time.Now(), &err)
	newID(&tier.ID)
	if tier.Benefits == nil {
		tier.Benefits = []string{}
	}

	err = pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "tiers:"+tier.CreatorID); err != nil {
			return fmt.Errorf("failed to lock creator: %w", err)
		}

		if maxTiers > 0 {
			var count int
			if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM tiers WHERE creator_id = $1`, tier.CreatorID).Scan(&count); err != nil {
				return fmt.Errorf("failed to count tiers: %w", err)
			}
			if count >= maxTiers {
				return models.NewValidationError("creator_id", "creator already has the maximum of %d tiers", maxTiers)
			}
		}

		query := `
			INSERT INTO tiers (id, creator_id, name, price, benefits)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING subscriber_count, created_at, updated_at
		`
		if err := tx.QueryRow(ctx, query, tier.ID, tier.CreatorID, tier.Name, tier.Price, tier.Benefits).
			Scan(&tier.SubscriberCount, &tier.CreatedAt, &tier.UpdatedAt); err != nil {
			return fmt.Errorf("failed to create tier: %w", err)
		}
		return nil
	})
	return err
}

// GetTier retrieves a tier by ID
func (r *Repository) GetTier(ctx context.Context, id string) (tier *models.Tier, err error) {
	defer r.observe("get_tier", time.Now(), &err)

	tier, err = scanTier(r.db.Pool.QueryRow(ctx, `SELECT `+tierColumns+` FROM tiers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tier: %w", err)
	}
	return tier, nil
}

// ListTiersByCreator retrieves a creator's tiers, oldest first
func (r *Repository) ListTiersByCreator(ctx context.Context, creatorID string) (tiers []*models.Tier, err error) {
	defer r.observe("list_tiers", time.Now(), &err)

	rows, err := r.db.Pool.Query(ctx, `SELECT `+tierColumns+` FROM tiers WHERE creator_id = $1 ORDER BY created_at`, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}
	defer rows.Close()

	tiers = make([]*models.Tier, 0)
	for rows.Next() {
		tier, err := scanTier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tier: %w", err)
		}
		tiers = append(tiers, tier)
	}
	return tiers, rows.Err()
}

// UpdateTier applies the non-nil fields of upd
func (r *Repository) UpdateTier(ctx context.Context, id string, upd models.TierUpdate) (tier *models.Tier, err error) {
	defer r.observe("update_tier", time.Now(), &err)

	query := `
		UPDATE tiers
		SET name = COALESCE($2, name),
		    price = COALESCE($3, price),
		    benefits = COALESCE($4, benefits),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + tierColumns

	tier, err = scanTier(r.db.Pool.QueryRow(ctx, query, id, upd.Name, upd.Price, upd.Benefits))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update tier: %w", err)
	}
	return tier, nil
}

// DeleteTier deletes a tier. Subscriptions are kept.
func (r *Repository) DeleteTier(ctx context.Context, id string) (err error) {
	defer r.observe("delete_tier", time.Now(), &err)

	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM tiers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Subscriptions

// CreateSubscription inserts the subscription and increments the tier's
// subscriber count in one transaction
func (r *Repository) CreateSubscription(ctx context.Context, sub *models.Subscription) (err error) {
	defer r.observe("create_subscription", time.Now(), &err)
	newID(&sub.ID)

	err = pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE tiers
			SET subscriber_count = subscriber_count + 1, updated_at = NOW()
			WHERE id = $1
			RETURNING creator_id
		`, sub.TierID).Scan(&sub.CreatorID)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to increment subscriber count: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO subscriptions (id, user_id, tier_id, creator_id)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at
		`, sub.ID, sub.UserID, sub.TierID, sub.CreatorID).Scan(&sub.CreatedAt)
		if isUniqueViolation(err) {
			return models.ErrConflict
		}
		if err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		return nil
	})
	return err
}

func (r *Repository) querySubscriptions(ctx context.Context, query string, args ...interface{}) ([]models.Subscription, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]models.Subscription, 0)
	for rows.Next() {
		var s models.Subscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.TierID, &s.CreatorID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// ListSubscriptionsByUser retrieves every subscription of a user
func (r *Repository) ListSubscriptionsByUser(ctx context.Context, userID string) (subs []models.Subscription, err error) {
	defer r.observe("list_subscriptions", time.Now(), &err)
	return r.querySubscriptions(ctx, `
		SELECT id, user_id, tier_id, creator_id, created_at
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
}

// GetByUserAndCreator retrieves a user's subscriptions with one creator
func (r *Repository) GetByUserAndCreator(ctx context.Context, userID, creatorID string) (subs []models.Subscription, err error) {
	defer r.observe("get_subscriptions_by_creator", time.Now(), &err)
	return r.querySubscriptions(ctx, `
		SELECT id, user_id, tier_id, creator_id, created_at
		FROM subscriptions
		WHERE user_id = $1 AND creator_id = $2
		ORDER BY created_at
	`, userID, creatorID)
}

// ListCreatorIDs returns every creator owning a tier or purchase item
func (r *Repository) ListCreatorIDs(ctx context.Context) (ids []string, err error) {
	defer r.observe("list_creators", time.Now(), &err)

	rows, err := r.db.Pool.Query(ctx, `
		SELECT creator_id FROM tiers
		UNION
		SELECT creator_id FROM one_time_purchases
		ORDER BY creator_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list creators: %w", err)
	}
	defer rows.Close()

	ids = make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan creator id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
