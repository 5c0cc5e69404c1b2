package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	// Create a mini Redis server for testing
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	cache, err := NewCache(mr.Host(), mr.Server().Addr().Port, "", 0)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create cache: %v", err)
	}

	return cache, mr
}

// MockLookup is a mock implementation of SubscriptionLookup
type MockLookup struct {
	mock.Mock
}

func (m *MockLookup) GetByUserAndCreator(ctx context.Context, userID, creatorID string) ([]models.Subscription, error) {
	args := m.Called(ctx, userID, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Subscription), args.Error(1)
}

func TestNewCache(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	if err := cache.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := mr.Host(), mr.Server().Addr().Port
	mr.Close()

	_, err := NewCache(host, port, "", 0)
	assert.Error(t, err)
}

func TestCache_SubscriptionOperations(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	// Miss
	subs, err := cache.GetSubscriptions(ctx, "u1", "creator-a")
	require.NoError(t, err)
	assert.Nil(t, subs)

	// Empty list is cached as a hit
	require.NoError(t, cache.SetSubscriptions(ctx, "u1", "creator-a", nil, time.Minute))
	subs, err = cache.GetSubscriptions(ctx, "u1", "creator-a")
	require.NoError(t, err)
	assert.NotNil(t, subs)
	assert.Empty(t, subs)

	want := []models.Subscription{{ID: "s1", UserID: "u1", TierID: "t1", CreatorID: "creator-a"}}
	require.NoError(t, cache.SetSubscriptions(ctx, "u1", "creator-a", want, time.Minute))
	subs, err = cache.GetSubscriptions(ctx, "u1", "creator-a")
	require.NoError(t, err)
	assert.Equal(t, want[0].TierID, subs[0].TierID)

	require.NoError(t, cache.InvalidateSubscriptions(ctx, "u1", "creator-a"))
	subs, err = cache.GetSubscriptions(ctx, "u1", "creator-a")
	require.NoError(t, err)
	assert.Nil(t, subs)

	// Expiry
	require.NoError(t, cache.SetSubscriptions(ctx, "u1", "creator-a", want, time.Second))
	mr.FastForward(2 * time.Second)
	subs, err = cache.GetSubscriptions(ctx, "u1", "creator-a")
	require.NoError(t, err)
	assert.Nil(t, subs)
}

func TestCachedLookup(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()
	next := new(MockLookup)
	want := []models.Subscription{{ID: "s1", UserID: "u1", TierID: "t1", CreatorID: "creator-a"}}
	next.On("GetByUserAndCreator", mock.Anything, "u1", "creator-a").Return(want, nil).Once()

	lookup := NewCachedLookup(cache, next, time.Minute, nil)

	for i := 0; i < 3; i++ {
		subs, err := lookup.GetByUserAndCreator(ctx, "u1", "creator-a")
		require.NoError(t, err)
		require.Len(t, subs, 1)
	}
	next.AssertNumberOfCalls(t, "GetByUserAndCreator", 1)

	// Invalidation forces a fresh read
	require.NoError(t, cache.InvalidateSubscriptions(ctx, "u1", "creator-a"))
	next.On("GetByUserAndCreator", mock.Anything, "u1", "creator-a").Return(want, nil).Once()
	_, err := lookup.GetByUserAndCreator(ctx, "u1", "creator-a")
	require.NoError(t, err)
	next.AssertNumberOfCalls(t, "GetByUserAndCreator", 2)
}

func TestCachedLookup_ErrorsAreNotCached(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	next := new(MockLookup)
	boom := errors.New("upstream down")
	next.On("GetByUserAndCreator", mock.Anything, "u1", "creator-a").Return(nil, boom)

	lookup := NewCachedLookup(cache, next, time.Minute, nil)
	_, err := lookup.GetByUserAndCreator(context.Background(), "u1", "creator-a")
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(subscriptionsKey("u1", "creator-a")))
}

func TestCachedLookup_RedisDownFallsThrough(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer cache.Close()

	next := new(MockLookup)
	next.On("GetByUserAndCreator", mock.Anything, "u1", "creator-a").Return([]models.Subscription{}, nil)

	mr.Close()

	lookup := NewCachedLookup(cache, next, time.Minute, nil)
	subs, err := lookup.GetByUserAndCreator(context.Background(), "u1", "creator-a")
	require.NoError(t, err)
	assert.Empty(t, subs)
	next.AssertExpectations(t)
}

func TestCache_RateLimit(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()
	key := "client:127.0.0.1"
	limit := int64(5)
	window := 1 * time.Minute

	// Should allow first 5 requests
	for i := 0; i < 5; i++ {
		allowed, err := cache.CheckRateLimit(ctx, key, limit, window)
		if err != nil {
			t.Fatalf("CheckRateLimit failed: %v", err)
		}

		if !allowed {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	// Should deny 6th request
	allowed, err := cache.CheckRateLimit(ctx, key, limit, window)
	if err != nil {
		t.Fatalf("CheckRateLimit failed: %v", err)
	}

	if allowed {
		t.Error("Request beyond limit should be denied")
	}

	// Window expiry resets the counter
	mr.FastForward(window + time.Second)
	allowed, err = cache.CheckRateLimit(ctx, key, limit, window)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCache_Locking(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()
	resource := "job:revenue-snapshot"

	token, acquired, err := cache.AcquireLock(ctx, resource, 1*time.Minute)
	require.NoError(t, err)
	require.True(t, acquired, "First lock acquisition should succeed")

	_, acquired, err = cache.AcquireLock(ctx, resource, 1*time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired, "Second lock acquisition should fail")

	// A stale token does not release someone else's lock
	require.NoError(t, cache.ReleaseLock(ctx, resource, "stale-token"))
	_, acquired, err = cache.AcquireLock(ctx, resource, 1*time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)

	require.NoError(t, cache.ReleaseLock(ctx, resource, token))
	_, acquired, err = cache.AcquireLock(ctx, resource, 1*time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired, "Lock acquisition after release should succeed")
}
