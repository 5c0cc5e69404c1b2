// Package content handles uploads, gated reads and rescoring of creator content.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/access"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/logging"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/scoring"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

const fileCleanupTimeout = 10 * time.Second

// Repository is the storage the content service needs
type Repository interface {
	CreateContent(ctx context.Context, c *models.Content) error
	GetContent(ctx context.Context, id string) (*models.Content, error)
	ListContentByCreator(ctx context.Context, creatorID string) ([]*models.Content, error)
	UpdateContentSignals(ctx context.Context, id string, signals models.QualitySignals, score, split float64) (*models.Content, error)
	GetTier(ctx context.Context, id string) (*models.Tier, error)
}

// AccessEvaluator decides whether a user may view content
type AccessEvaluator interface {
	CanView(ctx context.Context, content *models.Content, userID string) (access.Decision, error)
}

// FileStore stores uploaded content files
type FileStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	GetURL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// Service implements content operations
type Service struct {
	repo      Repository
	evaluator AccessEvaluator
	files     FileStore
	publisher EventPublisher
	logger    *logging.Logger
}

// NewService creates a content service. files and publisher may be nil.
func NewService(repo Repository, evaluator AccessEvaluator, files FileStore, publisher EventPublisher, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{
		repo:      repo,
		evaluator: evaluator,
		files:     files,
		publisher: publisher,
		logger:    logger,
	}
}

// File is an uploaded file attached to content
type File struct {
	Name        string
	Size        int64
	ContentType string
	Reader      io.Reader
}

// UploadInput is the payload for creating content
type UploadInput struct {
	CreatorID      string
	Title          string
	Description    string
	VideoURL       string
	Visibility     models.Visibility
	AllowedTierIDs []string
	Signals        models.QualitySignals
	File           *File
}

// Upload validates, scores and stores new content
func (s *Service) Upload(ctx context.Context, in UploadInput) (*models.Content, error) {
	c, err := s.validateUpload(ctx, in)
	if err != nil {
		return nil, err
	}

	c.ID = uuid.New().String()
	if in.File != nil {
		if s.files == nil {
			return nil, models.NewValidationError("file", "file uploads are not enabled")
		}
		c.Filename = path.Base(in.File.Name)
		c.FileKey = fmt.Sprintf("content/%s/%s/%s", c.CreatorID, c.ID, c.Filename)
		if err := s.files.Upload(ctx, c.FileKey, in.File.Reader, in.File.Size, in.File.ContentType); err != nil {
			return nil, fmt.Errorf("failed to store file: %w", err)
		}
	}

	applyScore(c, in.Signals)
	if err := s.repo.CreateContent(ctx, c); err != nil {
		if c.FileKey != "" {
			s.removeFile(c.FileKey)
		}
		return nil, err
	}

	var size int64
	if in.File != nil {
		size = in.File.Size
	}
	metrics.RecordContentUpload(string(c.Visibility), size, c.QualityScore)
	s.logger.LogContentScored(c.ID, c.QualityScore, c.RevenueSplit)
	s.publish(ctx, models.EventContentUploaded, c)
	return c, nil
}

// removeFile drops an object whose content row was never written. It runs
// detached from the request so a cancelled upload still cleans up.
func (s *Service) removeFile(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), fileCleanupTimeout)
	defer cancel()
	if err := s.files.Delete(ctx, key); err != nil {
		s.logger.WithError(err).WithField("file_key", key).Error("Failed to remove orphaned file")
	}
}

func (s *Service) validateUpload(ctx context.Context, in UploadInput) (*models.Content, error) {
	c := &models.Content{
		CreatorID:   strings.TrimSpace(in.CreatorID),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		VideoURL:    strings.TrimSpace(in.VideoURL),
		Visibility:  in.Visibility,
	}
	if c.CreatorID == "" {
		return nil, models.NewValidationError("creator_id", "is required")
	}
	if c.Title == "" {
		return nil, models.NewValidationError("title", "is required")
	}
	if c.Visibility == "" {
		c.Visibility = models.VisibilityPublic
	}
	if !c.Visibility.Valid() {
		return nil, models.NewValidationError("visibility", "must be PUBLIC or MEMBERS_ONLY, got %q", in.Visibility)
	}
	if err := ValidateSignals(in.Signals); err != nil {
		return nil, err
	}

	if c.Visibility == models.VisibilityPublic {
		return c, nil
	}

	tierIDs := dedupe(in.AllowedTierIDs)
	if len(tierIDs) == 0 {
		return nil, models.NewValidationError("allowed_tier_ids", "members-only content needs at least one tier")
	}
	for _, id := range tierIDs {
		tier, err := s.repo.GetTier(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.NewValidationError("allowed_tier_ids", "tier %s does not exist", id)
			}
			return nil, err
		}
		if tier.CreatorID != c.CreatorID {
			return nil, models.NewValidationError("allowed_tier_ids", "tier %s belongs to another creator", id)
		}
	}
	c.AllowedTierIDs = tierIDs
	return c, nil
}

// Get returns content userID may view. Denials return models.ErrAccessDenied.
func (s *Service) Get(ctx context.Context, id, userID string) (*models.Content, error) {
	c, err := s.repo.GetContent(ctx, id)
	if err != nil {
		return nil, err
	}

	decision, err := s.evaluator.CanView(ctx, c, userID)
	if err != nil {
		return nil, err
	}
	if !decision.Granted {
		return nil, fmt.Errorf("%w: %s", models.ErrAccessDenied, decision.Reason)
	}

	if c.FileKey != "" && s.files != nil {
		url, err := s.files.GetURL(ctx, c.FileKey)
		if err != nil {
			return nil, fmt.Errorf("failed to sign file url: %w", err)
		}
		c.VideoURL = url
	}
	return c, nil
}

// ListByCreator returns a creator's content. Members-only entries carry no video URL.
func (s *Service) ListByCreator(ctx context.Context, creatorID string) ([]*models.Content, error) {
	items, err := s.repo.ListContentByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	for _, c := range items {
		if c.Visibility == models.VisibilityMembersOnly {
			c.VideoURL = ""
		}
	}
	return items, nil
}

// MLScore is the score report of a content item
type MLScore struct {
	ContentID    string            `json:"content_id"`
	MLScore      float64           `json:"ml_score"`
	RevenueSplit float64           `json:"revenue_split"`
	Breakdown    scoring.Breakdown `json:"breakdown"`
}

// Score recomputes the score report from the stored signals
func (s *Service) Score(ctx context.Context, id string) (*MLScore, error) {
	c, err := s.repo.GetContent(ctx, id)
	if err != nil {
		return nil, err
	}
	breakdown := scoring.Evaluate(c.Signals)
	return &MLScore{
		ContentID:    c.ID,
		MLScore:      breakdown.Total,
		RevenueSplit: scoring.RevenueSplit(breakdown.Total),
		Breakdown:    breakdown,
	}, nil
}

// UpdateSignals replaces a content item's signals and rescores it. source
// names the caller for metrics (http, queue).
func (s *Service) UpdateSignals(ctx context.Context, id string, signals models.QualitySignals, source string) (*models.Content, error) {
	if err := ValidateSignals(signals); err != nil {
		return nil, err
	}

	score := scoring.Score(signals)
	c, err := s.repo.UpdateContentSignals(ctx, id, signals, score, scoring.RevenueSplit(score))
	if err != nil {
		return nil, err
	}

	metrics.RecordContentRescored(source, c.QualityScore)
	s.logger.LogContentScored(c.ID, c.QualityScore, c.RevenueSplit)
	s.publish(ctx, models.EventContentRescored, c)
	return c, nil
}

// ValidateSignals rejects negative counters
func ValidateSignals(sig models.QualitySignals) error {
	counters := []struct {
		field string
		value int64
	}{
		{"watch_time_seconds", sig.WatchTimeSeconds},
		{"likes", sig.Likes},
		{"comments", sig.Comments},
		{"shares", sig.Shares},
	}
	for _, c := range counters {
		if c.value < 0 {
			return models.NewValidationError(c.field, "must not be negative")
		}
	}
	return nil
}

func applyScore(c *models.Content, signals models.QualitySignals) {
	c.Signals = signals
	c.QualityScore = scoring.Score(signals)
	c.RevenueSplit = scoring.RevenueSplit(c.QualityScore)
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
}

func (s *Service) publish(ctx context.Context, routingKey string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, payload); err != nil {
		s.logger.WithError(err).WithField("event", routingKey).Warn("Failed to publish event")
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
