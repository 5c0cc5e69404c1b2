package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/config"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

const (
	ExchangeName        = "creatorhub.events"
	EngagementQueueName = "content.engagement"
	EngagementRouting   = "content.engagement"
)

// Queue publishes domain events and consumes engagement updates
type Queue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	// amqp channels are not safe for concurrent publishing
	mu sync.Mutex
}

// URL builds the AMQP connection URL from configuration
func URL(cfg config.QueueConfig) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Vhost)
}

// New creates a new queue client and declares the exchange and queues
func New(cfg config.QueueConfig) (*Queue, error) {
	conn, err := amqp.Dial(URL(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q := &Queue{conn: conn, channel: channel}
	if err := q.declare(); err != nil {
		q.Close()
		return nil, err
	}
	if err := q.SetupDeadLetterQueue(); err != nil {
		q.Close()
		return nil, err
	}

	return q, nil
}

func (q *Queue) declare() error {
	err := q.channel.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = q.channel.QueueDeclare(
		EngagementQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := q.channel.QueueBind(EngagementQueueName, EngagementRouting, ExchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}

// Close closes the queue connection
func (q *Queue) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// Ping fails once the broker connection or channel has been closed
func (q *Queue) Ping(ctx context.Context) error {
	if q.conn == nil || q.conn.IsClosed() {
		return errors.New("rabbitmq connection closed")
	}
	if q.channel == nil || q.channel.IsClosed() {
		return errors.New("rabbitmq channel closed")
	}
	return nil
}

// NewEvent wraps payload in the event envelope
func NewEvent(routingKey string, payload interface{}) models.Event {
	return models.Event{
		ID:        uuid.New().String(),
		Type:      routingKey,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	}
}

// Publish sends a domain event to the topic exchange
func (q *Queue) Publish(ctx context.Context, routingKey string, payload interface{}) (err error) {
	defer func() { metrics.RecordEventPublished(routingKey, err) }()

	event := NewEvent(routingKey, payload)
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	err = q.channel.PublishWithContext(ctx,
		ExchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    event.ID,
			Type:         routingKey,
			Body:         body,
			Timestamp:    event.Timestamp,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// EngagementHandler applies one engagement update
type EngagementHandler func(ctx context.Context, update *models.EngagementUpdate) error

// ConsumeEngagement consumes engagement updates until ctx is cancelled or
// the delivery channel closes. Failed updates are retried with backoff and
// dead-lettered once they exhaust MaxRetries or fail permanently.
func (q *Queue) ConsumeEngagement(ctx context.Context, prefetch int, handler EngagementHandler) error {
	if prefetch <= 0 {
		prefetch = 1
	}
	// Set QoS to limit concurrent processing
	if err := q.channel.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := q.channel.Consume(
		EngagementQueueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("engagement delivery channel closed")
			}
			q.handle(ctx, msg, handler)
		}
	}
}

func (q *Queue) handle(ctx context.Context, msg amqp.Delivery, handler EngagementHandler) {
	update, err := decodeEngagement(msg.Body)
	if err == nil {
		err = handler(ctx, update)
	}

	switch outcome, reason := decide(err, retryCount(msg.Headers)); outcome {
	case outcomeAck:
		msg.Ack(false)
	case outcomeRetry:
		if perr := q.PublishToRetryQueue(ctx, msg.Body, retryCount(msg.Headers)); perr != nil {
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
	case outcomeDeadLetter:
		if perr := q.PublishToDeadLetterQueue(ctx, msg.Body, reason); perr != nil {
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
	}
}

func decodeEngagement(body []byte) (*models.EngagementUpdate, error) {
	var update models.EngagementUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		return nil, models.NewValidationError("body", "invalid engagement update: %v", err)
	}
	if update.ContentID == "" {
		return nil, models.NewValidationError("content_id", "is required")
	}
	return &update, nil
}
