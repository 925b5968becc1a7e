package models

import (
	"time"

	"github.com/google/uuid"
)

// BlockchainNetwork is a payment-enabled chain with its oracle mapping and
// receiving address.
type BlockchainNetwork struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ChainID          int64     `gorm:"column:chain_id;not null;uniqueIndex"`
	Name             string    `gorm:"column:name;not null"`
	Symbol           string    `gorm:"column:symbol;not null"`
	OracleID         string    `gorm:"column:oracle_id;not null"`
	ReceivingAddress string    `gorm:"column:receiving_address;not null"`
	Active           bool      `gorm:"column:active;not null;default:true"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
