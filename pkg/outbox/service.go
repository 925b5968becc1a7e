package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/mintmotion/mintmotion-backend/pkg/db"
	"github.com/mintmotion/mintmotion-backend/pkg/db/models"
	"github.com/mintmotion/mintmotion-backend/pkg/enums"
	"github.com/mintmotion/mintmotion-backend/pkg/logger"
)

// DomainEvent is one payment-lifecycle fact queued for publication, staged
// in the same transaction that commits the state it describes.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	Version       int
	OccurredAt    time.Time
}

// Service stages domain events into the outbox table.
type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// Emit wraps the event data in a versioned envelope and inserts it inside
// the caller's transaction, so the event commits or rolls back with the
// order it belongs to.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	envelope := PayloadEnvelope{
		Version:    event.Version,
		EventID:    uuid.NewString(),
		OccurredAt: event.OccurredAt,
		Actor:      event.Actor,
		Data:       payload,
	}
	payloadJSON, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := models.OutboxEvent{
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       json.RawMessage(payloadJSON),
	}
	if err := s.repo.Insert(tx, row); err != nil {
		return err
	}
	if s.logg != nil {
		fields := map[string]any{
			"event_id":       envelope.EventID,
			"event_type":     event.EventType,
			"aggregate_id":   event.AggregateID.String(),
			"aggregate_type": event.AggregateType,
		}
		if event.Actor != nil {
			fields["user_id"] = event.Actor.UserID.String()
			if event.Actor.Wallet != "" {
				fields["wallet"] = event.Actor.Wallet
			}
		}
		logCtx := s.logg.WithFields(ctx, fields)
		s.logg.Info(logCtx, "outbox event queued")
	}
	return nil
}

// EmitIfNotExists skips the insert when an event of the same type already
// exists for the aggregate. A concurrent writer racing past the existence
// check lands on the unique index instead, which is treated the same way.
func (s *Service) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	exists, err := s.repo.ExistsTx(tx, event.EventType, event.AggregateType, event.AggregateID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := s.Emit(ctx, tx, event); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_outbox_events_event_aggregate") {
			return nil
		}
		return err
	}
	return nil
}
