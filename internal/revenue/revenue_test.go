package revenue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/memstore"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

// MockPublisher is a mock implementation of EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	args := m.Called(ctx, routingKey, payload)
	return args.Error(0)
}

// MockSales is a mock implementation of SalesRepository
type MockSales struct {
	mock.Mock
}

func (m *MockSales) ListTiersByCreator(ctx context.Context, creatorID string) ([]*models.Tier, error) {
	args := m.Called(ctx, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tier), args.Error(1)
}

func (m *MockSales) ListPurchasesByCreator(ctx context.Context, creatorID string) ([]*models.OneTimePurchase, error) {
	args := m.Called(ctx, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.OneTimePurchase), args.Error(1)
}

func TestAggregateRevenue(t *testing.T) {
	sales := new(MockSales)
	sales.On("ListTiersByCreator", mock.Anything, "creator-a").Return([]*models.Tier{
		{ID: "t1", Price: 9.99, SubscriberCount: 3},
		{ID: "t2", Price: 20, SubscriberCount: 1},
		{ID: "t3", Price: 5, SubscriberCount: -4},
	}, nil)
	sales.On("ListPurchasesByCreator", mock.Anything, "creator-a").Return([]*models.OneTimePurchase{
		{ID: "p1", Price: 15, PurchaseCount: 2},
	}, nil)

	summary, err := NewAggregator(sales).AggregateRevenue(context.Background(), "creator-a")
	require.NoError(t, err)

	assert.Equal(t, 49.97, summary.SubscriptionRevenue)
	assert.Equal(t, 30.0, summary.OneTimeRevenue)
	assert.Equal(t, 79.97, summary.TotalRevenue)
	assert.Equal(t, int64(4), summary.TotalSubscribers)
	assert.Equal(t, 3, summary.TotalTiers)
	assert.Equal(t, int64(2), summary.TotalPurchases)
}

func TestAggregateRevenue_Empty(t *testing.T) {
	summary, err := NewAggregator(memstore.New()).AggregateRevenue(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.TotalRevenue)
	assert.Equal(t, 0, summary.TotalTiers)
}

func TestAggregateRevenue_ListFailure(t *testing.T) {
	sales := new(MockSales)
	boom := errors.New("db down")
	sales.On("ListTiersByCreator", mock.Anything, "creator-a").Return(nil, boom)
	sales.On("ListPurchasesByCreator", mock.Anything, "creator-a").Return([]*models.OneTimePurchase{}, nil).Maybe()

	_, err := NewAggregator(sales).AggregateRevenue(context.Background(), "creator-a")
	assert.ErrorIs(t, err, boom)
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 1.07, RoundCents(9.99*0.75/7))
	assert.Equal(t, 7.5, RoundCents(7.5))
	assert.Equal(t, 0.0, RoundCents(0.004))
}

func seedCreator(t *testing.T, store *memstore.Store, creatorID string, status models.KycStatus) {
	t.Helper()
	ctx := context.Background()

	tier := &models.Tier{CreatorID: creatorID, Name: "Gold", Price: 10}
	require.NoError(t, store.CreateTier(ctx, tier, 0))
	for _, user := range []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7"} {
		require.NoError(t, store.CreateSubscription(ctx, &models.Subscription{UserID: user, TierID: tier.ID}))
	}
	require.NoError(t, store.SetKycStatus(ctx, &models.KycRecord{CreatorID: creatorID, Status: status}))
}

func TestComputePayout(t *testing.T) {
	store := memstore.New()
	seedCreator(t, store, "creator-a", models.KycVerified)

	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, models.EventPayoutComputed, mock.AnythingOfType("*models.Payout")).Return(nil)

	engine := NewPayoutEngine(NewAggregator(store), store, StaticScorer(0.75), publisher, 7, nil)

	payout, err := engine.ComputePayout(context.Background(), "creator-a")
	require.NoError(t, err)
	assert.Equal(t, 70.0, payout.TotalRevenue)
	assert.Equal(t, 0.75, payout.PerformanceScore)
	assert.Equal(t, 7, payout.SmoothingWindowDays)
	assert.Equal(t, 7.5, payout.Amount)
	assert.Equal(t, models.KycVerified, payout.KycStatus)

	history, err := engine.History(context.Background(), "creator-a")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, payout.ID, history[0].ID)

	publisher.AssertExpectations(t)
}

func TestComputePayout_RequiresVerifiedKyc(t *testing.T) {
	for _, status := range []models.KycStatus{models.KycNotStarted, models.KycPending, models.KycRejected} {
		t.Run(string(status), func(t *testing.T) {
			store := memstore.New()
			seedCreator(t, store, "creator-a", status)

			publisher := new(MockPublisher)
			engine := NewPayoutEngine(NewAggregator(store), store, StaticScorer(0.75), publisher, 7, nil)

			_, err := engine.ComputePayout(context.Background(), "creator-a")
			assert.ErrorIs(t, err, models.ErrKycNotVerified)

			history, err := engine.History(context.Background(), "creator-a")
			require.NoError(t, err)
			assert.Empty(t, history)
			publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestComputePayout_PublishFailureDoesNotFail(t *testing.T) {
	store := memstore.New()
	seedCreator(t, store, "creator-a", models.KycVerified)

	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, models.EventPayoutComputed, mock.Anything).Return(errors.New("channel closed"))

	engine := NewPayoutEngine(NewAggregator(store), store, StaticScorer(0.75), publisher, 7, nil)
	_, err := engine.ComputePayout(context.Background(), "creator-a")
	assert.NoError(t, err)
}

func TestNewPayoutEngine_DefaultWindow(t *testing.T) {
	engine := NewPayoutEngine(nil, nil, StaticScorer(1), nil, 0, nil)
	assert.Equal(t, DefaultSmoothingWindowDays, engine.windowDays)
}

func TestContentQualityScorer(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	scorer := NewContentQualityScorer(store, DefaultPerformanceScore)

	score, err := scorer.PerformanceScore(ctx, "creator-a")
	require.NoError(t, err)
	assert.Equal(t, DefaultPerformanceScore, score)

	require.NoError(t, store.CreateContent(ctx, &models.Content{CreatorID: "creator-a", QualityScore: 90}))
	require.NoError(t, store.CreateContent(ctx, &models.Content{CreatorID: "creator-a", QualityScore: 50}))

	score, err = scorer.PerformanceScore(ctx, "creator-a")
	require.NoError(t, err)
	assert.InDelta(t, 0.70, score, 1e-9)
}

func TestSnapshotJob(t *testing.T) {
	store := memstore.New()
	seedCreator(t, store, "creator-a", models.KycPending)
	require.NoError(t, store.CreatePurchase(context.Background(), &models.OneTimePurchase{CreatorID: "creator-b", Name: "E-book", Price: 5}))

	job := NewSnapshotJob(NewAggregator(store), store, nil)
	job.now = func() time.Time { return time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, job.Run(context.Background()))
	// Running twice in a month replaces the snapshot
	require.NoError(t, job.Run(context.Background()))

	snaps, err := job.Snapshots(context.Background(), "creator-a")
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 2026, snaps[0].Year)
	assert.Equal(t, 10, snaps[0].Month)
	assert.Equal(t, 70.0, snaps[0].TotalRevenue)
	assert.Equal(t, int64(7), snaps[0].TotalSubscribers)

	snaps, err = job.Snapshots(context.Background(), "creator-b")
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 0.0, snaps[0].TotalRevenue)
}
