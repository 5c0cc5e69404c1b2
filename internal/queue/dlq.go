package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

const (
	DeadLetterQueueName    = "content.engagement.dlq"
	DeadLetterExchangeName = "creatorhub.dlq"
	RetryQueueName         = "content.engagement.retry"
	MaxRetries             = 5
)

type outcome int

const (
	outcomeAck outcome = iota
	outcomeRetry
	outcomeDeadLetter
)

// SetupDeadLetterQueue sets up the dead letter queue infrastructure
func (q *Queue) SetupDeadLetterQueue() error {
	// Declare dead letter exchange
	err := q.channel.ExchangeDeclare(
		DeadLetterExchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}

	_, err = q.channel.QueueDeclare(DeadLetterQueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	err = q.channel.QueueBind(DeadLetterQueueName, DeadLetterQueueName, DeadLetterExchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	// Expired retry messages flow back to the engagement queue
	retryArgs := amqp.Table{
		"x-dead-letter-exchange":    ExchangeName,
		"x-dead-letter-routing-key": EngagementRouting,
	}
	_, err = q.channel.QueueDeclare(RetryQueueName, true, false, false, false, retryArgs)
	if err != nil {
		return fmt.Errorf("failed to declare retry queue: %w", err)
	}

	log.Debug().Msg("Dead letter queue infrastructure set up successfully")
	return nil
}

// decide maps a handler result to what happens to the delivery
func decide(err error, retries int) (outcome, string) {
	switch {
	case err == nil:
		return outcomeAck, ""
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrNotFound):
		return outcomeDeadLetter, err.Error()
	case retries >= MaxRetries:
		return outcomeDeadLetter, "max retries exceeded: " + err.Error()
	default:
		return outcomeRetry, ""
	}
}

func retryCount(headers amqp.Table) int {
	switch v := headers["x-retry-count"].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	}
	return 0
}

// PublishToRetryQueue schedules a failed update for redelivery after a backoff delay
func (q *Queue) PublishToRetryQueue(ctx context.Context, body []byte, retries int) error {
	delay := calculateBackoffDelay(retries)

	q.mu.Lock()
	defer q.mu.Unlock()

	err := q.channel.PublishWithContext(ctx,
		"",
		RetryQueueName,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
			Headers:      amqp.Table{"x-retry-count": int32(retries + 1)},
			Expiration:   fmt.Sprintf("%d", delay.Milliseconds()),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to retry queue: %w", err)
	}

	log.Info().Int("retry", retries+1).Dur("delay", delay).Msg("Engagement update queued for retry")
	return nil
}

// PublishToDeadLetterQueue parks an update that will not succeed on retry
func (q *Queue) PublishToDeadLetterQueue(ctx context.Context, body []byte, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	err := q.channel.PublishWithContext(ctx,
		DeadLetterExchangeName,
		DeadLetterQueueName,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
			Headers: amqp.Table{
				"x-failure-reason": reason,
				"x-failed-at":      time.Now().Format(time.RFC3339),
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to DLQ: %w", err)
	}

	log.Warn().Str("reason", reason).Msg("Engagement update moved to dead letter queue")
	return nil
}

// calculateBackoffDelay doubles from 10s per retry, capped at 10 minutes
func calculateBackoffDelay(retryCount int) time.Duration {
	baseDelay := 10 * time.Second
	if retryCount > 10 {
		retryCount = 10
	}
	delay := baseDelay * (1 << retryCount)

	if delay > 10*time.Minute {
		delay = 10 * time.Minute
	}

	return delay
}

// GetDLQDepth returns the number of messages in the dead letter queue
func (q *Queue) GetDLQDepth() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	info, err := q.channel.QueueInspect(DeadLetterQueueName)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect DLQ: %w", err)
	}

	return info.Messages, nil
}

// MonitorDLQ samples the dead letter queue depth into metrics every
// interval until ctx is done.
func (q *Queue) MonitorDLQ(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		sampleDLQDepth(q.GetDLQDepth)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func sampleDLQDepth(depth func() (int, error)) {
	n, err := depth()
	if err != nil {
		metrics.RecordError("queue", "dlq_inspect")
		log.Warn().Err(err).Msg("Failed to inspect dead letter queue")
		return
	}
	metrics.SetDeadLetterQueueDepth(n)
	if n > 0 {
		log.Debug().Int("depth", n).Msg("Dead letter queue has messages")
	}
}
