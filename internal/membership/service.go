// Package membership manages tiers, subscriptions, one-time purchases and
// creator KYC state.
package membership

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/therealutkarshpriyadarshi/creatorhub/internal/logging"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/revenue"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

// DefaultMaxTiersPerCreator caps how many tiers a creator may define
const DefaultMaxTiersPerCreator = 3

// Repository is the storage the membership service needs
type Repository interface {
	CreateTier(ctx context.Context, tier *models.Tier, maxTiers int) error
	GetTier(ctx context.Context, id string) (*models.Tier, error)
	ListTiersByCreator(ctx context.Context, creatorID string) ([]*models.Tier, error)
	UpdateTier(ctx context.Context, id string, upd models.TierUpdate) (*models.Tier, error)
	DeleteTier(ctx context.Context, id string) error

	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	ListSubscriptionsByUser(ctx context.Context, userID string) ([]models.Subscription, error)
	GetByUserAndCreator(ctx context.Context, userID, creatorID string) ([]models.Subscription, error)

	CreatePurchase(ctx context.Context, p *models.OneTimePurchase) error
	GetPurchase(ctx context.Context, id string) (*models.OneTimePurchase, error)
	ListPurchasesByCreator(ctx context.Context, creatorID string) ([]*models.OneTimePurchase, error)
	UpdatePurchase(ctx context.Context, id string, upd models.PurchaseUpdate) (*models.OneTimePurchase, error)
	DeletePurchase(ctx context.Context, id string) error
	RecordPurchase(ctx context.Context, rec *models.PurchaseRecord) error

	GetKycStatus(ctx context.Context, creatorID string) (*models.KycRecord, error)
	SetKycStatus(ctx context.Context, rec *models.KycRecord) error
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// SubscriptionCache drops cached subscription lookups
type SubscriptionCache interface {
	InvalidateSubscriptions(ctx context.Context, userID, creatorID string) error
}

// Config holds tier rules
type Config struct {
	MaxTiersPerCreator int
	AllowedPrices      []float64
}

// Service implements membership operations
type Service struct {
	repo       Repository
	aggregator *revenue.Aggregator
	publisher  EventPublisher
	cache      SubscriptionCache
	cfg        Config
	locks      *keyedMutex
	logger     *logging.Logger
}

// NewService creates a membership service. publisher and cache may be nil.
func NewService(repo Repository, aggregator *revenue.Aggregator, publisher EventPublisher, cache SubscriptionCache, cfg Config, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{
		repo:       repo,
		aggregator: aggregator,
		publisher:  publisher,
		cache:      cache,
		cfg:        cfg,
		locks:      newKeyedMutex(),
		logger:     logger,
	}
}

// TierInput is the payload for creating a tier
type TierInput struct {
	CreatorID string
	Name      string
	Price     float64
	Benefits  []string
}

// CreateTier validates and stores a new tier
func (s *Service) CreateTier(ctx context.Context, in TierInput) (*models.Tier, error) {
	in.CreatorID = strings.TrimSpace(in.CreatorID)
	in.Name = strings.TrimSpace(in.Name)
	if in.CreatorID == "" {
		return nil, models.NewValidationError("creator_id", "is required")
	}
	if in.Name == "" {
		return nil, models.NewValidationError("name", "is required")
	}
	if err := s.validatePrice(in.Price); err != nil {
		return nil, err
	}

	tier := &models.Tier{
		CreatorID: in.CreatorID,
		Name:      in.Name,
		Price:     in.Price,
		Benefits:  cleanBenefits(in.Benefits),
	}

	unlock := s.locks.Lock(in.CreatorID)
	defer unlock()

	if err := s.repo.CreateTier(ctx, tier, s.cfg.MaxTiersPerCreator); err != nil {
		return nil, err
	}

	s.logger.WithCreatorID(tier.CreatorID).WithField("tier_id", tier.ID).Info("Tier created")
	return tier, nil
}

// GetTier returns a tier by id
func (s *Service) GetTier(ctx context.Context, id string) (*models.Tier, error) {
	return s.repo.GetTier(ctx, id)
}

// ListTiers returns the tiers of a creator
func (s *Service) ListTiers(ctx context.Context, creatorID string) ([]*models.Tier, error) {
	return s.repo.ListTiersByCreator(ctx, creatorID)
}

// UpdateTier changes a tier's name, price or benefits
func (s *Service) UpdateTier(ctx context.Context, id string, upd models.TierUpdate) (*models.Tier, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, models.NewValidationError("name", "must not be empty")
		}
		upd.Name = &name
	}
	if upd.Price != nil {
		if err := s.validatePrice(*upd.Price); err != nil {
			return nil, err
		}
	}
	if upd.Benefits != nil {
		upd.Benefits = cleanBenefits(upd.Benefits)
	}
	return s.repo.UpdateTier(ctx, id, upd)
}

// DeleteTier removes a tier. Content gated on it becomes unviewable through it.
func (s *Service) DeleteTier(ctx context.Context, id string) error {
	return s.repo.DeleteTier(ctx, id)
}

// Subscribe subscribes userID to tierID
func (s *Service) Subscribe(ctx context.Context, userID, tierID string) (*models.Subscription, error) {
	userID = strings.TrimSpace(userID)
	tierID = strings.TrimSpace(tierID)
	if userID == "" {
		return nil, models.NewValidationError("user_id", "is required")
	}
	if tierID == "" {
		return nil, models.NewValidationError("tier_id", "is required")
	}

	sub := &models.Subscription{UserID: userID, TierID: tierID}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	metrics.SubscriptionsCreatedTotal.Inc()

	if s.cache != nil {
		if err := s.cache.InvalidateSubscriptions(ctx, userID, sub.CreatorID); err != nil {
			s.logger.WithUserID(userID).WithError(err).Warn("Failed to invalidate subscription cache")
		}
	}
	s.publish(ctx, models.EventSubscriptionCreated, sub)

	s.logger.WithUserID(userID).WithCreatorID(sub.CreatorID).WithField("tier_id", tierID).Info("Subscription created")
	return sub, nil
}

// ListSubscriptions returns a user's subscriptions, restricted to one creator
// when creatorID is set
func (s *Service) ListSubscriptions(ctx context.Context, userID, creatorID string) ([]models.Subscription, error) {
	if creatorID != "" {
		return s.repo.GetByUserAndCreator(ctx, userID, creatorID)
	}
	return s.repo.ListSubscriptionsByUser(ctx, userID)
}

// PurchaseInput is the payload for creating a one-time purchase item
type PurchaseInput struct {
	CreatorID   string
	Name        string
	Price       float64
	Description string
	Type        string
}

// CreatePurchase validates and stores a one-time purchase item
func (s *Service) CreatePurchase(ctx context.Context, in PurchaseInput) (*models.OneTimePurchase, error) {
	in.CreatorID = strings.TrimSpace(in.CreatorID)
	in.Name = strings.TrimSpace(in.Name)
	if in.CreatorID == "" {
		return nil, models.NewValidationError("creator_id", "is required")
	}
	if in.Name == "" {
		return nil, models.NewValidationError("name", "is required")
	}
	if err := s.validatePrice(in.Price); err != nil {
		return nil, err
	}

	item := &models.OneTimePurchase{
		CreatorID:   in.CreatorID,
		Name:        in.Name,
		Price:       in.Price,
		Description: in.Description,
		Type:        in.Type,
	}
	if err := s.repo.CreatePurchase(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetPurchase returns a one-time purchase item by id
func (s *Service) GetPurchase(ctx context.Context, id string) (*models.OneTimePurchase, error) {
	return s.repo.GetPurchase(ctx, id)
}

// ListPurchases returns a creator's one-time purchase items
func (s *Service) ListPurchases(ctx context.Context, creatorID string) ([]*models.OneTimePurchase, error) {
	return s.repo.ListPurchasesByCreator(ctx, creatorID)
}

// UpdatePurchase changes a one-time purchase item
func (s *Service) UpdatePurchase(ctx context.Context, id string, upd models.PurchaseUpdate) (*models.OneTimePurchase, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, models.NewValidationError("name", "must not be empty")
		}
		upd.Name = &name
	}
	if upd.Price != nil {
		if err := s.validatePrice(*upd.Price); err != nil {
			return nil, err
		}
	}
	return s.repo.UpdatePurchase(ctx, id, upd)
}

// DeletePurchase removes a one-time purchase item
func (s *Service) DeletePurchase(ctx context.Context, id string) error {
	return s.repo.DeletePurchase(ctx, id)
}

// Purchase records userID buying purchaseID
func (s *Service) Purchase(ctx context.Context, purchaseID, userID string) (*models.PurchaseRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, models.NewValidationError("user_id", "is required")
	}

	rec := &models.PurchaseRecord{PurchaseID: purchaseID, UserID: userID}
	if err := s.repo.RecordPurchase(ctx, rec); err != nil {
		return nil, err
	}
	metrics.PurchasesCompletedTotal.Inc()
	s.publish(ctx, models.EventPurchaseCompleted, rec)
	return rec, nil
}

// StartVerification moves a creator from not_started or rejected to pending.
// Pending and verified creators are returned unchanged.
func (s *Service) StartVerification(ctx context.Context, creatorID string) (*models.KycRecord, error) {
	if strings.TrimSpace(creatorID) == "" {
		return nil, models.NewValidationError("creator_id", "is required")
	}

	unlock := s.locks.Lock("kyc:" + creatorID)
	defer unlock()

	rec, err := s.repo.GetKycStatus(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if rec.Status == models.KycPending || rec.Status == models.KycVerified {
		return rec, nil
	}

	next := &models.KycRecord{CreatorID: creatorID, Status: models.KycPending}
	if err := s.repo.SetKycStatus(ctx, next); err != nil {
		return nil, err
	}
	s.logger.WithCreatorID(creatorID).Info("KYC verification started")
	return next, nil
}

// GetKycStatus returns a creator's KYC state
func (s *Service) GetKycStatus(ctx context.Context, creatorID string) (*models.KycRecord, error) {
	return s.repo.GetKycStatus(ctx, creatorID)
}

// SetKycStatus applies a verification provider's decision to a pending creator
func (s *Service) SetKycStatus(ctx context.Context, creatorID string, status models.KycStatus, reason string) (*models.KycRecord, error) {
	if status != models.KycVerified && status != models.KycRejected {
		return nil, models.NewValidationError("status", "must be verified or rejected, got %q", status)
	}

	unlock := s.locks.Lock("kyc:" + creatorID)
	defer unlock()

	rec, err := s.repo.GetKycStatus(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.KycPending {
		return nil, fmt.Errorf("%w: kyc status is %s, expected pending", models.ErrConflict, rec.Status)
	}

	next := &models.KycRecord{CreatorID: creatorID, Status: status}
	if status == models.KycRejected {
		next.Reason = reason
	}
	if err := s.repo.SetKycStatus(ctx, next); err != nil {
		return nil, err
	}
	s.logger.WithCreatorID(creatorID).WithField("status", status).Info("KYC status updated")
	return next, nil
}

// Dashboard returns the creator's revenue summary
func (s *Service) Dashboard(ctx context.Context, creatorID string) (*models.RevenueSummary, error) {
	return s.aggregator.AggregateRevenue(ctx, creatorID)
}

func (s *Service) validatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return models.NewValidationError("price", "must be greater than 0")
	}
	if len(s.cfg.AllowedPrices) == 0 {
		return nil
	}
	for _, allowed := range s.cfg.AllowedPrices {
		if math.Abs(allowed-price) < 0.005 {
			return nil
		}
	}
	return models.NewValidationError("price", "%.2f is not an allowed price", price)
}

func (s *Service) publish(ctx context.Context, routingKey string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, payload); err != nil {
		s.logger.WithError(err).WithField("event", routingKey).Warn("Failed to publish event")
	}
}

func cleanBenefits(benefits []string) []string {
	out := make([]string, 0, len(benefits))
	for _, b := range benefits {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
