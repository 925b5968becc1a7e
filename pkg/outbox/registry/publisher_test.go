package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mintmotion/mintmotion-backend/pkg/config"
	"github.com/mintmotion/mintmotion-backend/pkg/db/models"
	"github.com/mintmotion/mintmotion-backend/pkg/enums"
	"github.com/mintmotion/mintmotion-backend/pkg/outbox"
	"github.com/mintmotion/mintmotion-backend/pkg/outbox/payloads"
)

func TestEventRegistryResolveSuccess(t *testing.T) {
	reg := newTestEventRegistry(t)

	recordID := uuid.New()
	payloadBytes := mustMarshal(t, payloads.OrderCreatedEvent{
		TransactionID: uuid.New(),
		UserID:        uuid.New(),
		TxHash:        "0xabc",
		ChainID:       1,
		TotalUSD:      "129.00",
		RecordIDs:     []uuid.UUID{recordID},
	})

	event := models.OutboxEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, payloadBytes),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "domain-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	if resolved.Descriptor.EventType != enums.EventOrderCreated {
		t.Fatalf("unexpected event type %s", resolved.Descriptor.EventType)
	}
	payload, ok := resolved.Payload.(*payloads.OrderCreatedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if len(payload.RecordIDs) != 1 || payload.RecordIDs[0] != recordID {
		t.Fatalf("payload mismatch %+v", payload)
	}
	if resolved.Envelope.EventID == "" {
		t.Fatalf("envelope missing event id")
	}
	if resolved.Envelope.OccurredAt.IsZero() {
		t.Fatalf("envelope missing occurred_at")
	}
}

func TestEventRegistryResolveUnknownEvent(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.OutboxEventType("cart_abandoned"),
		AggregateType: enums.AggregateTransaction,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, []byte(`{"reason":"none"}`)),
	}

	_, err := reg.Resolve(event)
	if err == nil {
		t.Fatalf("expected error")
	}
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error, got %T", err)
	}
}

func TestEventRegistryResolveAggregateMismatch(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateRecord,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, []byte(`{"record_ids":[]}`)),
	}

	_, err := reg.Resolve(event)
	if err == nil {
		t.Fatalf("expected error")
	}
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error")
	}
}

func TestEventRegistryResolveMissingAggregateID(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   uuid.Nil,
		Payload:       mustEnvelope(t, []byte(`{}`)),
	}

	_, err := reg.Resolve(event)
	if err == nil {
		t.Fatalf("expected error")
	}
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error")
	}
}

func TestEventRegistryResolveNullPayload(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, []byte("null")),
	}

	_, err := reg.Resolve(event)
	if err == nil {
		t.Fatalf("expected error")
	}
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error")
	}
}

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	cfg := config.PubSubConfig{
		DomainTopic: "domain-topic",
	}
	reg, err := NewEventRegistry(cfg)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func mustEnvelope(t *testing.T, payload []byte) json.RawMessage {
	t.Helper()
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return data
}
