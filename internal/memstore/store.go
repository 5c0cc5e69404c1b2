// Package memstore is an in-memory implementation of every repository the
// services consume. It is selected when database.enabled is false.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

// Store keeps all records in maps guarded by one RWMutex.
// Reads return copies so callers never observe later writes.
type Store struct {
	mu sync.RWMutex

	tiers         map[string]*models.Tier
	subscriptions map[string]*models.Subscription
	purchases     map[string]*models.OneTimePurchase
	records       map[string]*models.PurchaseRecord
	kyc           map[string]*models.KycRecord
	content       map[string]*models.Content
	payouts       map[string][]*models.Payout
	snapshots     map[snapshotKey]*models.RevenueSnapshot
}

type snapshotKey struct {
	creatorID string
	year      int
	month     int
}

// New creates an empty store
func New() *Store {
	return &Store{
		tiers:         make(map[string]*models.Tier),
		subscriptions: make(map[string]*models.Subscription),
		purchases:     make(map[string]*models.OneTimePurchase),
		records:       make(map[string]*models.PurchaseRecord),
		kyc:           make(map[string]*models.KycRecord),
		content:       make(map[string]*models.Content),
		payouts:       make(map[string][]*models.Payout),
		snapshots:     make(map[snapshotKey]*models.RevenueSnapshot),
	}
}

func stamp(id *string, createdAt *time.Time) time.Time {
	now := time.Now().UTC()
	if *id == "" {
		*id = uuid.New().String()
	}
	if createdAt.IsZero() {
		*createdAt = now
	}
	return now
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// CreateTier stores a tier. When maxTiers is positive and the creator already
// owns that many tiers a validation error is returned.
func (s *Store) CreateTier(ctx context.Context, tier *models.Tier, maxTiers int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if maxTiers > 0 {
		count := 0
		for _, t := range s.tiers {
			if t.CreatorID == tier.CreatorID {
				count++
			}
		}
		if count >= maxTiers {
			return models.NewValidationError("creator_id", "creator already has the maximum of %d tiers", maxTiers)
		}
	}

	tier.UpdatedAt = stamp(&tier.ID, &tier.CreatedAt)
	s.tiers[tier.ID] = tier.Clone()
	return nil
}

// GetTier returns a tier by id
func (s *Store) GetTier(ctx context.Context, id string) (*models.Tier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tier, ok := s.tiers[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return tier.Clone(), nil
}

// ListTiersByCreator returns a creator's tiers, oldest first
func (s *Store) ListTiersByCreator(ctx context.Context, creatorID string) ([]*models.Tier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tiers := make([]*models.Tier, 0)
	for _, t := range s.tiers {
		if t.CreatorID == creatorID {
			tiers = append(tiers, t.Clone())
		}
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].CreatedAt.Before(tiers[j].CreatedAt) })
	return tiers, nil
}

// UpdateTier applies the non-nil fields of upd
func (s *Store) UpdateTier(ctx context.Context, id string, upd models.TierUpdate) (*models.Tier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tier, ok := s.tiers[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if upd.Name != nil {
		tier.Name = *upd.Name
	}
	if upd.Price != nil {
		tier.Price = *upd.Price
	}
	if upd.Benefits != nil {
		tier.Benefits = append([]string(nil), upd.Benefits...)
	}
	tier.UpdatedAt = time.Now().UTC()
	return tier.Clone(), nil
}

// DeleteTier removes a tier. Existing subscriptions are kept.
func (s *Store) DeleteTier(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tiers[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.tiers, id)
	return nil
}

// CreateSubscription records the subscription and increments the tier's
// subscriber count in one step. The subscription's CreatorID is taken from the tier.
func (s *Store) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tier, ok := s.tiers[sub.TierID]
	if !ok {
		return models.ErrNotFound
	}
	for _, existing := range s.subscriptions {
		if existing.UserID == sub.UserID && existing.TierID == sub.TierID {
			return models.ErrConflict
		}
	}

	stamp(&sub.ID, &sub.CreatedAt)
	sub.CreatorID = tier.CreatorID
	stored := *sub
	s.subscriptions[sub.ID] = &stored
	tier.SubscriberCount++
	return nil
}

// ListSubscriptionsByUser returns every subscription of a user
func (s *Store) ListSubscriptionsByUser(ctx context.Context, userID string) ([]models.Subscription, error) {
	return s.filterSubscriptions(func(sub *models.Subscription) bool {
		return sub.UserID == userID
	}), nil
}

// GetByUserAndCreator returns a user's subscriptions with one creator
func (s *Store) GetByUserAndCreator(ctx context.Context, userID, creatorID string) ([]models.Subscription, error) {
	return s.filterSubscriptions(func(sub *models.Subscription) bool {
		return sub.UserID == userID && sub.CreatorID == creatorID
	}), nil
}

func (s *Store) filterSubscriptions(keep func(*models.Subscription) bool) []models.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := make([]models.Subscription, 0)
	for _, sub := range s.subscriptions {
		if keep(sub) {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.Before(subs[j].CreatedAt) })
	return subs
}

// CreatePurchase stores a one-time purchase item
func (s *Store) CreatePurchase(ctx context.Context, p *models.OneTimePurchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.UpdatedAt = stamp(&p.ID, &p.CreatedAt)
	stored := *p
	s.purchases[p.ID] = &stored
	return nil
}

// GetPurchase returns a one-time purchase item by id
func (s *Store) GetPurchase(ctx context.Context, id string) (*models.OneTimePurchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.purchases[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *p
	return &out, nil
}

// ListPurchasesByCreator returns a creator's one-time purchase items
func (s *Store) ListPurchasesByCreator(ctx context.Context, creatorID string) ([]*models.OneTimePurchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*models.OneTimePurchase, 0)
	for _, p := range s.purchases {
		if p.CreatorID == creatorID {
			out := *p
			items = append(items, &out)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

// UpdatePurchase applies the non-nil fields of upd
func (s *Store) UpdatePurchase(ctx context.Context, id string, upd models.PurchaseUpdate) (*models.OneTimePurchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.purchases[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Type != nil {
		p.Type = *upd.Type
	}
	p.UpdatedAt = time.Now().UTC()
	out := *p
	return &out, nil
}

// DeletePurchase removes a one-time purchase item
func (s *Store) DeletePurchase(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.purchases[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.purchases, id)
	return nil
}

// RecordPurchase stores a purchase record and increments the item's purchase
// count in one step. CreatorID and Price are taken from the item.
func (s *Store) RecordPurchase(ctx context.Context, rec *models.PurchaseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.purchases[rec.PurchaseID]
	if !ok {
		return models.ErrNotFound
	}

	stamp(&rec.ID, &rec.CreatedAt)
	rec.CreatorID = p.CreatorID
	rec.Price = p.Price
	stored := *rec
	s.records[rec.ID] = &stored
	p.PurchaseCount++
	return nil
}

// GetKycStatus returns a creator's KYC record, not_started when none exists
func (s *Store) GetKycStatus(ctx context.Context, creatorID string) (*models.KycRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.kyc[creatorID]
	if !ok {
		return &models.KycRecord{CreatorID: creatorID, Status: models.KycNotStarted}, nil
	}
	out := *rec
	return &out, nil
}

// SetKycStatus replaces a creator's KYC record
func (s *Store) SetKycStatus(ctx context.Context, rec *models.KycRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	rec.UpdatedAt = &now
	stored := *rec
	s.kyc[rec.CreatorID] = &stored
	return nil
}

// CreateContent stores a content item
func (s *Store) CreateContent(ctx context.Context, c *models.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.UpdatedAt = stamp(&c.ID, &c.CreatedAt)
	s.content[c.ID] = c.Clone()
	return nil
}

// GetContent returns a content item by id
func (s *Store) GetContent(ctx context.Context, id string) (*models.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.content[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return c.Clone(), nil
}

// ListContentByCreator returns a creator's content, newest first
func (s *Store) ListContentByCreator(ctx context.Context, creatorID string) ([]*models.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*models.Content, 0)
	for _, c := range s.content {
		if c.CreatorID == creatorID {
			items = append(items, c.Clone())
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

// UpdateContentSignals replaces the signals and the derived score and split
func (s *Store) UpdateContentSignals(ctx context.Context, id string, signals models.QualitySignals, score, split float64) (*models.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.content[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c.Signals = signals
	c.QualityScore = score
	c.RevenueSplit = split
	c.UpdatedAt = time.Now().UTC()
	return c.Clone(), nil
}

// CreatePayout appends a payout to the creator's history
func (s *Store) CreatePayout(ctx context.Context, p *models.Payout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp(&p.ID, &p.CreatedAt)
	stored := *p
	s.payouts[p.CreatorID] = append(s.payouts[p.CreatorID], &stored)
	return nil
}

// ListPayouts returns a creator's payouts, newest first
func (s *Store) ListPayouts(ctx context.Context, creatorID string) ([]*models.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.payouts[creatorID]
	out := make([]*models.Payout, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		p := *history[i]
		out = append(out, &p)
	}
	return out, nil
}

// UpsertRevenueSnapshot stores the snapshot, replacing any for the same month
func (s *Store) UpsertRevenueSnapshot(ctx context.Context, snap *models.RevenueSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *snap
	s.snapshots[snapshotKey{snap.CreatorID, snap.Year, snap.Month}] = &stored
	return nil
}

// ListRevenueSnapshots returns a creator's snapshots, newest month first
func (s *Store) ListRevenueSnapshots(ctx context.Context, creatorID string) ([]*models.RevenueSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.RevenueSnapshot, 0)
	for k, snap := range s.snapshots {
		if k.creatorID == creatorID {
			cp := *snap
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out, nil
}

// ListCreatorIDs returns every creator owning at least one tier or purchase item
func (s *Store) ListCreatorIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, t := range s.tiers {
		seen[t.CreatorID] = struct{}{}
	}
	for _, p := range s.purchases {
		seen[p.CreatorID] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
