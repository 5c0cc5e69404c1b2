package membership

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/memstore"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/revenue"
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

// MockCache is a mock implementation of SubscriptionCache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) InvalidateSubscriptions(ctx context.Context, userID, creatorID string) error {
	args := m.Called(ctx, userID, creatorID)
	return args.Error(0)
}

func newTestService(cfg Config) (*Service, *memstore.Store) {
	store := memstore.New()
	return NewService(store, revenue.NewAggregator(store), nil, nil, cfg, nil), store
}

func TestCreateTierValidation(t *testing.T) {
	svc, _ := newTestService(Config{MaxTiersPerCreator: DefaultMaxTiersPerCreator})
	ctx := context.Background()

	tests := []struct {
		name  string
		input TierInput
		field string
	}{
		{"missing creator", TierInput{Name: "Gold", Price: 5}, "creator_id"},
		{"missing name", TierInput{CreatorID: "c", Name: "  ", Price: 5}, "name"},
		{"zero price", TierInput{CreatorID: "c", Name: "Gold", Price: 0}, "price"},
		{"negative price", TierInput{CreatorID: "c", Name: "Gold", Price: -1}, "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTier(ctx, tt.input)
			require.ErrorIs(t, err, models.ErrValidation)

			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestCreateTierLimit(t *testing.T) {
	svc, _ := newTestService(Config{MaxTiersPerCreator: 3})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateTier(ctx, TierInput{CreatorID: "c", Name: fmt.Sprintf("T%d", i), Price: 5})
		require.NoError(t, err)
	}
	_, err := svc.CreateTier(ctx, TierInput{CreatorID: "c", Name: "T4", Price: 5})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCreateTierConcurrentLimit(t *testing.T) {
	svc, store := newTestService(Config{MaxTiersPerCreator: 3})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc.CreateTier(ctx, TierInput{CreatorID: "c", Name: fmt.Sprintf("T%d", i), Price: 5})
		}(i)
	}
	wg.Wait()

	tiers, err := store.ListTiersByCreator(ctx, "c")
	require.NoError(t, err)
	assert.Len(t, tiers, 3)
}

func TestCreateTierAllowedPrices(t *testing.T) {
	svc, _ := newTestService(Config{AllowedPrices: []float64{4.99, 9.99}})
	ctx := context.Background()

	_, err := svc.CreateTier(ctx, TierInput{CreatorID: "c", Name: "Gold", Price: 9.99})
	assert.NoError(t, err)

	_, err = svc.CreateTier(ctx, TierInput{CreatorID: "c", Name: "Odd", Price: 7})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestUpdateTier(t *testing.T) {
	svc, _ := newTestService(Config{})
	ctx := context.Background()

	tier, err := svc.CreateTier(ctx, TierInput{CreatorID: "c", Name: "Gold", Price: 5, Benefits: []string{" chat ", ""}})
	require.NoError(t, err)
	assert.Equal(t, []string{"chat"}, tier.Benefits)

	price := 7.5
	updated, err := svc.UpdateTier(ctx, tier.ID, models.TierUpdate{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 7.5, updated.Price)
	assert.Equal(t, "Gold", updated.Name)

	bad := 0.0
	_, err = svc.UpdateTier(ctx, tier.ID, models.TierUpdate{Price: &bad})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.UpdateTier(ctx, "missing", models.TierUpdate{Price: &price})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSubscribe(t *testing.T) {
	store := memstore.New()
	publisher := new(MockPublisher)
	cache := new(MockCache)
	svc := NewService(store, revenue.NewAggregator(store), publisher, cache, Config{}, nil)
	ctx := context.Background()

	tier, err := svc.CreateTier(ctx, TierInput{CreatorID: "creator-a", Name: "Gold", Price: 9.99})
	require.NoError(t, err)

	publisher.On("Publish", mock.Anything, models.EventSubscriptionCreated, mock.AnythingOfType("*models.Subscription")).Return(nil).Once()
	cache.On("InvalidateSubscriptions", mock.Anything, "u1", "creator-a").Return(nil).Once()

	sub, err := svc.Subscribe(ctx, "u1", tier.ID)
	require.NoError(t, err)
	assert.Equal(t, "creator-a", sub.CreatorID)

	_, err = svc.Subscribe(ctx, "u1", tier.ID)
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = svc.Subscribe(ctx, "u1", "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.Subscribe(ctx, "", tier.ID)
	assert.ErrorIs(t, err, models.ErrValidation)

	summary, err := svc.Dashboard(ctx, "creator-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.TotalSubscribers)
	assert.Equal(t, 9.99, summary.TotalRevenue)

	publisher.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestConcurrentSubscribes(t *testing.T) {
	svc, store := newTestService(Config{})
	ctx := context.Background()

	tier, err := svc.CreateTier(ctx, TierInput{CreatorID: "creator-a", Name: "Gold", Price: 1})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Subscribe(ctx, fmt.Sprintf("user-%d", i), tier.ID)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := store.GetTier(ctx, tier.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.SubscriberCount)
}

func TestListSubscriptionsFilter(t *testing.T) {
	svc, _ := newTestService(Config{})
	ctx := context.Background()

	a, err := svc.CreateTier(ctx, TierInput{CreatorID: "creator-a", Name: "A", Price: 1})
	require.NoError(t, err)
	b, err := svc.CreateTier(ctx, TierInput{CreatorID: "creator-b", Name: "B", Price: 1})
	require.NoError(t, err)

	_, err = svc.Subscribe(ctx, "u1", a.ID)
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, "u1", b.ID)
	require.NoError(t, err)

	all, err := svc.ListSubscriptions(ctx, "u1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := svc.ListSubscriptions(ctx, "u1", "creator-b")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, b.ID, scoped[0].TierID)
}

func TestPurchase(t *testing.T) {
	store := memstore.New()
	publisher := new(MockPublisher)
	svc := NewService(store, revenue.NewAggregator(store), publisher, nil, Config{}, nil)
	ctx := context.Background()

	item, err := svc.CreatePurchase(ctx, PurchaseInput{CreatorID: "creator-a", Name: "E-book", Price: 15, Type: "digital"})
	require.NoError(t, err)

	publisher.On("Publish", mock.Anything, models.EventPurchaseCompleted, mock.AnythingOfType("*models.PurchaseRecord")).Return(nil)

	rec, err := svc.Purchase(ctx, item.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 15.0, rec.Price)

	_, err = svc.Purchase(ctx, "missing", "u1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	summary, err := svc.Dashboard(ctx, "creator-a")
	require.NoError(t, err)
	assert.Equal(t, 15.0, summary.OneTimeRevenue)
	assert.Equal(t, int64(1), summary.TotalPurchases)
}

func TestKycTransitions(t *testing.T) {
	svc, _ := newTestService(Config{})
	ctx := context.Background()

	rec, err := svc.GetKycStatus(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, models.KycNotStarted, rec.Status)

	// Provider callback before verification started
	_, err = svc.SetKycStatus(ctx, "c", models.KycVerified, "")
	assert.ErrorIs(t, err, models.ErrConflict)

	rec, err = svc.StartVerification(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, models.KycPending, rec.Status)

	rec, err = svc.SetKycStatus(ctx, "c", models.KycRejected, "document unreadable")
	require.NoError(t, err)
	assert.Equal(t, models.KycRejected, rec.Status)
	assert.Equal(t, "document unreadable", rec.Reason)

	// Rejected creators may retry
	rec, err = svc.StartVerification(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, models.KycPending, rec.Status)

	rec, err = svc.SetKycStatus(ctx, "c", models.KycVerified, "")
	require.NoError(t, err)
	assert.Equal(t, models.KycVerified, rec.Status)

	// Starting again keeps verified
	rec, err = svc.StartVerification(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, models.KycVerified, rec.Status)

	_, err = svc.SetKycStatus(ctx, "c", models.KycPending, "")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestKeyedMutexReleasesKeys(t *testing.T) {
	k := newKeyedMutex()
	unlock := k.Lock("a")
	unlock()
	assert.Empty(t, k.locks)
}
