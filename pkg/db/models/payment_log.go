package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mintmotion/mintmotion-backend/pkg/enums"
)

// PaymentLog is an append-only audit trail of payment lifecycle events.
// Writes are best effort and never fail the flow that produced them.
type PaymentLog struct {
	ID        uuid.UUID                 `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    *uuid.UUID                `gorm:"column:user_id;type:uuid;index"`
	TxHash    *string                   `gorm:"column:tx_hash;index"`
	EventType enums.PaymentLogEventType `gorm:"column:event_type;not null"`
	Detail    json.RawMessage           `gorm:"column:detail;type:jsonb"`
	CreatedAt time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
