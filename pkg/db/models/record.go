package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mintmotion/mintmotion-backend/pkg/enums"
)

// Record is a single purchased render inside a transaction. Each record
// tracks its own delivery status so one failed render does not block the
// rest of the order.
type Record struct {
	ID              uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TransactionID   uuid.UUID          `gorm:"column:transaction_id;type:uuid;not null;index"`
	TemplateID      uuid.UUID          `gorm:"column:template_id;type:uuid;not null"`
	ProjectID       uuid.UUID          `gorm:"column:project_id;type:uuid;not null"`
	OrderNumber     string             `gorm:"column:order_number;not null"`
	PriceUSD        decimal.Decimal    `gorm:"column:price_usd;type:numeric(12,2);not null"`
	BackgroundColor string             `gorm:"column:background_color;not null"`
	Headline        *string            `gorm:"column:headline"`
	Subheadline     *string            `gorm:"column:subheadline"`
	Status          enums.RecordStatus `gorm:"column:status;not null"`
	VideoURL        *string            `gorm:"column:video_url"`
	FailureReason   *string            `gorm:"column:failure_reason"`
	DeliveredAt     *time.Time         `gorm:"column:delivered_at"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`

	Template *Template `gorm:"foreignKey:TemplateID"`
	Project  *Project  `gorm:"foreignKey:ProjectID"`
}
