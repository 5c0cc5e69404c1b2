package cache

import (
	"context"
	"time"

	"github.com/therealutkarshpriyadarshi/creatorhub/internal/logging"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

// SubscriptionLookup returns a user's subscriptions with one creator
type SubscriptionLookup interface {
	GetByUserAndCreator(ctx context.Context, userID, creatorID string) ([]models.Subscription, error)
}

// CachedLookup serves subscription lookups from Redis and falls back to next.
// Redis failures are logged and treated as misses.
type CachedLookup struct {
	cache  *Cache
	next   SubscriptionLookup
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedLookup wraps next with a Redis cache
func NewCachedLookup(cache *Cache, next SubscriptionLookup, ttl time.Duration, logger *logging.Logger) *CachedLookup {
	if logger == nil {
		logger = logging.Nop()
	}
	return &CachedLookup{cache: cache, next: next, ttl: ttl, logger: logger}
}

// GetByUserAndCreator implements SubscriptionLookup
func (l *CachedLookup) GetByUserAndCreator(ctx context.Context, userID, creatorID string) ([]models.Subscription, error) {
	subs, err := l.cache.GetSubscriptions(ctx, userID, creatorID)
	if err != nil {
		l.logger.WithError(err).Warn("Subscription cache read failed")
	}
	if err == nil && subs != nil {
		metrics.RecordCacheAccess("subscriptions", true)
		return subs, nil
	}
	metrics.RecordCacheAccess("subscriptions", false)

	subs, err = l.next.GetByUserAndCreator(ctx, userID, creatorID)
	if err != nil {
		return nil, err
	}

	if err := l.cache.SetSubscriptions(ctx, userID, creatorID, subs, l.ttl); err != nil {
		l.logger.WithError(err).Warn("Subscription cache write failed")
	}
	return subs, nil
}
