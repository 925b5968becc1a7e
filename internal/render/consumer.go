package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mintmotion/mintmotion-backend/pkg/enums"
	"github.com/mintmotion/mintmotion-backend/pkg/logger"
	"github.com/mintmotion/mintmotion-backend/pkg/outbox"
	"github.com/mintmotion/mintmotion-backend/pkg/outbox/payloads"
)

// ConsumerName scopes idempotency keys for this worker.
const ConsumerName = "render-worker"

type recordUpdater interface {
	MarkRecordDelivered(ctx context.Context, recordID uuid.UUID, videoURL string, deliveredAt time.Time) error
	MarkRecordFailed(ctx context.Context, recordID uuid.UUID, reason string) error
}

type idempotencyGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer applies render lifecycle events from Pub/Sub to order records.
type Consumer struct {
	orders       recordUpdater
	guard        idempotencyGuard
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer constructs a consumer that watches the render subscription.
func NewConsumer(orders recordUpdater, guard idempotencyGuard, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if orders == nil {
		return nil, errors.New("orders service is required")
	}
	if guard == nil {
		return nil, errors.New("idempotency guard is required")
	}
	if subscription == nil {
		return nil, errors.New("render subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		orders:       orders,
		guard:        guard,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	}
	logCtx := c.logg.WithFields(ctx, fields)

	switch eventType {
	case enums.EventRecordDelivered, enums.EventRecordFailed:
	default:
		c.logg.Info(logCtx, "skipping event outside render lifecycle")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to unmarshal envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "envelope carries malformed event id", err)
		return processResult{ack: true}
	}
	fields["event_id"] = eventID.String()
	logCtx = c.logg.WithFields(ctx, fields)

	seen, err := c.guard.CheckAndMarkProcessed(ctx, ConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if seen {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.apply(logCtx, eventType, envelope.Data); err != nil {
		// Release the idempotency claim so a redelivery can retry.
		if delErr := c.guard.Delete(ctx, ConsumerName, eventID); delErr != nil {
			err = multierr.Append(err, fmt.Errorf("release idempotency claim: %w", delErr))
		}
		return c.handleApplyError(logCtx, err)
	}

	c.logg.Info(logCtx, "render event applied")
	return processResult{ack: true}
}

func (c *Consumer) apply(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage) error {
	switch eventType {
	case enums.EventRecordDelivered:
		var event payloads.RecordDeliveredEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return fmt.Errorf("decode record_delivered payload: %w", err)
		}
		return c.orders.MarkRecordDelivered(ctx, event.RecordID, event.VideoURL, event.DeliveredAt)
	case enums.EventRecordFailed:
		var event payloads.RecordFailedEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return fmt.Errorf("decode record_failed payload: %w", err)
		}
		return c.orders.MarkRecordFailed(ctx, event.RecordID, event.Reason)
	default:
		return fmt.Errorf("unsupported event type %s", eventType)
	}
}

func (c *Consumer) handleApplyError(ctx context.Context, err error) processResult {
	c.logg.Error(ctx, "render event persistence error", err)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return processResult{ack: true}
	}
	if isTransientError(err) {
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func isTransientError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
