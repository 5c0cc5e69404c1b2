package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

const purchaseColumns = `id, creator_id, name, price, description, type, purchase_count, created_at, updated_at`

func scanPurchase(row pgx.Row) (*models.OneTimePurchase, error) {
	var p models.OneTimePurchase
	err := row.Scan(&p.ID, &p.CreatorID, &p.Name, &p.Price, &p.Description, &p.Type, &p.PurchaseCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePurchase inserts a one-time purchase item
func (r *Repository) CreatePurchase(ctx context.Context, p *models.OneTimePurchase) (err error) {
	defer r.observe("create_purchase", time.Now(), &err)
	newID(&p.ID)

	query := `
		INSERT INTO one_time_purchases (id, creator_id, name, price, description, type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING purchase_count, created_at, updated_at
	`
	err = r.db.Pool.QueryRow(ctx, query, p.ID, p.CreatorID, p.Name, p.Price, p.Description, p.Type).
		Scan(&p.PurchaseCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}
	return nil
}

// GetPurchase retrieves a purchase item by ID
func (r *Repository) GetPurchase(ctx context.Context, id string) (p *models.OneTimePurchase, err error) {
	defer r.observe("get_purchase", time.Now(), &err)

	p, err = scanPurchase(r.db.Pool.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM one_time_purchases WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}
	return p, nil
}

// ListPurchasesByCreator retrieves a creator's purchase items, oldest first
func (r *Repository) ListPurchasesByCreator(ctx context.Context, creatorID string) (items []*models.OneTimePurchase, err error) {
	defer r.observe("list_purchases", time.Now(), &err)

	rows, err := r.db.Pool.Query(ctx, `SELECT `+purchaseColumns+` FROM one_time_purchases WHERE creator_id = $1 ORDER BY created_at`, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	items = make([]*models.OneTimePurchase, 0)
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// UpdatePurchase applies the non-nil fields of upd
func (r *Repository) UpdatePurchase(ctx context.Context, id string, upd models.PurchaseUpdate) (p *models.OneTimePurchase, err error) {
	defer r.observe("update_purchase", time.Now(), &err)

	query := `
		UPDATE one_time_purchases
		SET name = COALESCE($2, name),
		    price = COALESCE($3, price),
		    description = COALESCE($4, description),
		    type = COALESCE($5, type),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + purchaseColumns

	p, err = scanPurchase(r.db.Pool.QueryRow(ctx, query, id, upd.Name, upd.Price, upd.Description, upd.Type))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update purchase: %w", err)
	}
	return p, nil
}

// DeletePurchase deletes a purchase item. Purchase records are kept.
func (r *Repository) DeletePurchase(ctx context.Context, id string) (err error) {
	defer r.observe("delete_purchase", time.Now(), &err)

	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM one_time_purchases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete purchase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// RecordPurchase stores a purchase record and increments the item's purchase
// count in one transaction. CreatorID and Price are taken from the item.
func (r *Repository) RecordPurchase(ctx context.Context, rec *models.PurchaseRecord) (err error) {
	defer r.observe("record_purchase", time.Now(), &err)
	newID(&rec.ID)

	err = pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE one_time_purchases
			SET purchase_count = purchase_count + 1, updated_at = NOW()
			WHERE id = $1
			RETURNING creator_id, price
		`, rec.PurchaseID).Scan(&rec.CreatorID, &rec.Price)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to increment purchase count: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO purchase_records (id, purchase_id, user_id, creator_id, price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at
		`, rec.ID, rec.PurchaseID, rec.UserID, rec.CreatorID, rec.Price).Scan(&rec.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to record purchase: %w", err)
		}
		return nil
	})
	return err
}

// GetKycStatus returns a creator's KYC record, not_started when none exists
func (r *Repository) GetKycStatus(ctx context.Context, creatorID string) (rec *models.KycRecord, err error) {
	defer r.observe("get_kyc", time.Now(), &err)

	var (
		status    string
		updatedAt time.Time
	)
	rec = &models.KycRecord{CreatorID: creatorID}
	err = r.db.Pool.QueryRow(ctx, `SELECT status, reason, updated_at FROM kyc WHERE creator_id = $1`, creatorID).
		Scan(&status, &rec.Reason, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		rec.Status = models.KycNotStarted
		return rec, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kyc status: %w", err)
	}
	rec.Status = models.KycStatus(status)
	rec.UpdatedAt = &updatedAt
	return rec, nil
}

// SetKycStatus replaces a creator's KYC record
func (r *Repository) SetKycStatus(ctx context.Context, rec *models.KycRecord) (err error) {
	defer r.observe("set_kyc", time.Now(), &err)

	var updatedAt time.Time
	err = r.db.Pool.QueryRow(ctx, `
		INSERT INTO kyc (creator_id, status, reason, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (creator_id) DO UPDATE
		SET status = EXCLUDED.status, reason = EXCLUDED.reason, updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`, rec.CreatorID, string(rec.Status), rec.Reason).Scan(&updatedAt)
	if err != nil {
		return fmt.Errorf("failed to set kyc status: %w", err)
	}
	rec.UpdatedAt = &updatedAt
	return nil
}
