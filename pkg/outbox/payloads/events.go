package payloads

import (
	"time"

	"github.com/google/uuid"
)

// OrderCreatedEvent signals a paid checkout ready for rendering.
type OrderCreatedEvent struct {
	TransactionID uuid.UUID         `json:"transaction_id"`
	UserID        uuid.UUID         `json:"user_id"`
	TxHash        string            `json:"tx_hash"`
	ChainID       int64             `json:"chain_id"`
	TotalUSD      string            `json:"total_usd"`
	RecordIDs     []uuid.UUID       `json:"record_ids"`
	Renders       []RenderRequested `json:"renders"`
}

// RenderRequested carries everything the render pipeline needs per record.
type RenderRequested struct {
	RecordID        uuid.UUID `json:"record_id"`
	TemplateID      uuid.UUID `json:"template_id"`
	ProjectID       uuid.UUID `json:"project_id"`
	BackgroundColor string    `json:"background_color"`
	Headline        *string   `json:"headline,omitempty"`
	Subheadline     *string   `json:"subheadline,omitempty"`
}

// RecordDeliveredEvent is emitted when a render finishes and the video is available.
type RecordDeliveredEvent struct {
	RecordID      uuid.UUID `json:"record_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	VideoURL      string    `json:"video_url"`
	DeliveredAt   time.Time `json:"delivered_at"`
}

// RecordFailedEvent is emitted when a render fails terminally.
type RecordFailedEvent struct {
	RecordID      uuid.UUID `json:"record_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Reason        string    `json:"reason"`
	FailedAt      time.Time `json:"failed_at"`
}
