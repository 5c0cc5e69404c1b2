package queue

import (
	"context"

	"github.com/therealutkarshpriyadarshi/creatorhub/internal/metrics"
)

// NopPublisher drops events. It is used when no broker is configured.
type NopPublisher struct{}

// Publish records the event and discards it
func (NopPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	metrics.RecordEventPublished(routingKey, nil)
	return nil
}
