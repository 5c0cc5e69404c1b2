package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/logging"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

// setupRepository connects to the database named by CREATORHUB_TEST_DATABASE_URL.
// Tests are skipped when it is unset.
func setupRepository(t *testing.T) *Repository {
	t.Helper()

	dsn := os.Getenv("CREATORHUB_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("Skipping integration test - CREATORHUB_TEST_DATABASE_URL not set")
	}

	db, err := Connect(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(context.Background()))

	return NewRepository(db, logging.Nop())
}

func newCreator() string {
	return "creator-" + uuid.New().String()
}

func TestRepository_TierLimit(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()
	creator := newCreator()

	for i := 0; i < 3; i++ {
		tier := &models.Tier{CreatorID: creator, Name: "tier", Price: 4.99, Benefits: []string{"badge"}}
		require.NoError(t, repo.CreateTier(ctx, tier, 3))
		assert.NotEmpty(t, tier.ID)
	}

	err := repo.CreateTier(ctx, &models.Tier{CreatorID: creator, Name: "fourth", Price: 4.99}, 3)
	assert.ErrorIs(t, err, models.ErrValidation)

	tiers, err := repo.ListTiersByCreator(ctx, creator)
	require.NoError(t, err)
	assert.Len(t, tiers, 3)
	assert.Equal(t, []string{"badge"}, tiers[0].Benefits)
}

func TestRepository_TierUpdateAndDelete(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	tier := &models.Tier{CreatorID: newCreator(), Name: "Gold", Price: 9.99}
	require.NoError(t, repo.CreateTier(ctx, tier, 0))

	name := "Platinum"
	updated, err := repo.UpdateTier(ctx, tier.ID, models.TierUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Platinum", updated.Name)
	assert.InDelta(t, 9.99, updated.Price, 0.001)

	require.NoError(t, repo.DeleteTier(ctx, tier.ID))
	_, err = repo.GetTier(ctx, tier.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteTier(ctx, tier.ID), models.ErrNotFound)
}

func TestRepository_ConcurrentSubscribe(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()
	creator := newCreator()

	tier := &models.Tier{CreatorID: creator, Name: "Gold", Price: 10}
	require.NoError(t, repo.CreateTier(ctx, tier, 0))

	const users = 50
	var wg sync.WaitGroup
	errs := make(chan error, users)
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.CreateSubscription(ctx, &models.Subscription{UserID: uuid.New().String(), TierID: tier.ID})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.GetTier(ctx, tier.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(users), got.SubscriberCount)
}

func TestRepository_DuplicateSubscription(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()
	creator := newCreator()

	tier := &models.Tier{CreatorID: creator, Name: "Gold", Price: 10}
	require.NoError(t, repo.CreateTier(ctx, tier, 0))

	sub := &models.Subscription{UserID: "u1", TierID: tier.ID}
	require.NoError(t, repo.CreateSubscription(ctx, sub))
	assert.Equal(t, creator, sub.CreatorID)

	err := repo.CreateSubscription(ctx, &models.Subscription{UserID: "u1", TierID: tier.ID})
	assert.ErrorIs(t, err, models.ErrConflict)

	got, err := repo.GetTier(ctx, tier.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.SubscriberCount)

	subs, err := repo.GetByUserAndCreator(ctx, "u1", creator)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	err = repo.CreateSubscription(ctx, &models.Subscription{UserID: "u1", TierID: "missing"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRepository_RecordPurchase(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()
	creator := newCreator()

	item := &models.OneTimePurchase{CreatorID: creator, Name: "Preset pack", Price: 15, Type: "download"}
	require.NoError(t, repo.CreatePurchase(ctx, item))

	rec := &models.PurchaseRecord{PurchaseID: item.ID, UserID: "u1"}
	require.NoError(t, repo.RecordPurchase(ctx, rec))
	assert.Equal(t, creator, rec.CreatorID)
	assert.InDelta(t, 15, rec.Price, 0.001)

	got, err := repo.GetPurchase(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.PurchaseCount)

	err = repo.RecordPurchase(ctx, &models.PurchaseRecord{PurchaseID: "missing", UserID: "u1"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRepository_Kyc(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()
	creator := newCreator()

	rec, err := repo.GetKycStatus(ctx, creator)
	require.NoError(t, err)
	assert.Equal(t, models.KycNotStarted, rec.Status)

	require.NoError(t, repo.SetKycStatus(ctx, &models.KycRecord{CreatorID: creator, Status: models.KycPending}))
	require.NoError(t, repo.SetKycStatus(ctx, &models.KycRecord{CreatorID: creator, Status: models.KycRejected, Reason: "blurry"}))

	rec, err = repo.GetKycStatus(ctx, creator)
	require.NoError(t, err)
	assert.Equal(t, models.KycRejected, rec.Status)
	assert.Equal(t, "blurry", rec.Reason)
	assert.NotNil(t, rec.UpdatedAt)
}

func TestRepository_ContentSignals(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()
	creator := newCreator()

	c := &models.Content{
		CreatorID:      creator,
		Title:          "Episode 1",
		Visibility:     models.VisibilityMembersOnly,
		AllowedTierIDs: []string{"t1", "t2"},
		Signals:        models.QualitySignals{IsOriginal: true, WatchTimeSeconds: 150},
		QualityScore:   30,
		RevenueSplit:   0.5,
		FileKey:        "content/" + creator + "/episode.mp4",
	}
	require.NoError(t, repo.CreateContent(ctx, c))

	got, err := repo.GetContent(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityMembersOnly, got.Visibility)
	assert.Equal(t, []string{"t1", "t2"}, got.AllowedTierIDs)
	assert.True(t, got.Signals.IsOriginal)
	assert.Equal(t, c.FileKey, got.FileKey)

	signals := got.Signals
	signals.Likes = 600
	updated, err := repo.UpdateContentSignals(ctx, c.ID, signals, 45, 0.5)
	require.NoError(t, err)
	assert.Equal(t, int64(600), updated.Signals.Likes)
	assert.InDelta(t, 45, updated.QualityScore, 0.001)

	_, err = repo.UpdateContentSignals(ctx, "missing", signals, 0, 0.5)
	assert.ErrorIs(t, err, models.ErrNotFound)

	items, err := repo.ListContentByCreator(ctx, creator)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRepository_PayoutsAndSnapshots(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()
	creator := newCreator()

	p := &models.Payout{CreatorID: creator, TotalRevenue: 70, PerformanceScore: 0.75, SmoothingWindowDays: 7, Amount: 7.5, KycStatus: models.KycVerified}
	require.NoError(t, repo.CreatePayout(ctx, p))

	payouts, err := repo.ListPayouts(ctx, creator)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.InDelta(t, 7.5, payouts[0].Amount, 0.001)
	assert.Equal(t, models.KycVerified, payouts[0].KycStatus)

	snap := &models.RevenueSnapshot{CreatorID: creator, Year: 2026, Month: 3, TotalRevenue: 10, SubscriptionRevenue: 10}
	require.NoError(t, repo.UpsertRevenueSnapshot(ctx, snap))
	snap.TotalRevenue = 25
	require.NoError(t, repo.UpsertRevenueSnapshot(ctx, snap))
	require.NoError(t, repo.UpsertRevenueSnapshot(ctx, &models.RevenueSnapshot{CreatorID: creator, Year: 2026, Month: 4}))

	snaps, err := repo.ListRevenueSnapshots(ctx, creator)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, 4, snaps[0].Month)
	assert.InDelta(t, 25, snaps[1].TotalRevenue, 0.001)
}

func TestObserveLogsOperations(t *testing.T) {
	var buf bytes.Buffer
	r := &Repository{logger: logging.New(&buf, zerolog.DebugLevel)}

	decode := func() map[string]interface{} {
		t.Helper()
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		buf.Reset()
		return entry
	}

	miss := fmt.Errorf("tier t1: %w", models.ErrNotFound)
	r.observe("get_tier", time.Now(), &miss)
	entry := decode()
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "get_tier", entry["operation"])
	assert.Nil(t, entry["error"])

	failure := errors.New("connection reset")
	r.observe("create_tier", time.Now(), &failure)
	entry = decode()
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "connection reset", entry["error"])
}
