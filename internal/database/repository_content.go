package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

const contentColumns = `id, creator_id, title, description, video_url, filename, file_key, visibility,
	allowed_tier_ids, quality_signals, quality_score, revenue_split, created_at, updated_at`

func scanContent(row pgx.Row) (*models.Content, error) {
	var (
		c          models.Content
		visibility string
	)
	err := row.Scan(
		&c.ID, &c.CreatorID, &c.Title, &c.Description, &c.VideoURL, &c.Filename, &c.FileKey, &visibility,
		&c.AllowedTierIDs, &c.Signals, &c.QualityScore, &c.RevenueSplit, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Visibility = models.Visibility(visibility)
	if c.AllowedTierIDs == nil {
		c.AllowedTierIDs = []string{}
	}
	return &c, nil
}

// CreateContent inserts a content item
func (r *Repository) CreateContent(ctx context.Context, c *models.Content) (err error) {
	defer r.observe("create_content", time.Now(), &err)
	newID(&c.ID)
	if c.AllowedTierIDs == nil {
		c.AllowedTierIDs = []string{}
	}

	query := `
		INSERT INTO content (id, creator_id, title, description, video_url, filename, file_key, visibility,
			allowed_tier_ids, quality_signals, quality_score, revenue_split)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	err = r.db.Pool.QueryRow(ctx, query,
		c.ID, c.CreatorID, c.Title, c.Description, c.VideoURL, c.Filename, c.FileKey, string(c.Visibility),
		c.AllowedTierIDs, c.Signals, c.QualityScore, c.RevenueSplit,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create content: %w", err)
	}
	return nil
}

// GetContent retrieves a content item by ID
func (r *Repository) GetContent(ctx context.Context, id string) (c *models.Content, err error) {
	defer r.observe("get_content", time.Now(), &err)

	c, err = scanContent(r.db.Pool.QueryRow(ctx, `SELECT `+contentColumns+` FROM content WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	return c, nil
}

// ListContentByCreator retrieves a creator's content, newest first
func (r *Repository) ListContentByCreator(ctx context.Context, creatorID string) (items []*models.Content, err error) {
	defer r.observe("list_content", time.Now(), &err)

	rows, err := r.db.Pool.Query(ctx, `SELECT `+contentColumns+` FROM content WHERE creator_id = $1 ORDER BY created_at DESC`, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}
	defer rows.Close()

	items = make([]*models.Content, 0)
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// UpdateContentSignals replaces the signals of a content item together with
// the score and split derived from them
func (r *Repository) UpdateContentSignals(ctx context.Context, id string, signals models.QualitySignals, score, split float64) (c *models.Content, err error) {
	defer r.observe("update_content_signals", time.Now(), &err)

	query := `
		UPDATE content
		SET quality_signals = $2, quality_score = $3, revenue_split = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + contentColumns

	c, err = scanContent(r.db.Pool.QueryRow(ctx, query, id, signals, score, split))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update content signals: %w", err)
	}
	return c, nil
}
