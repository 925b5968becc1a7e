package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the canonical identity entity, keyed by wallet ownership.
type User struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	WalletAddress string     `gorm:"column:wallet_address;type:text;not null;uniqueIndex"`
	Email         *string    `gorm:"column:email;type:text"`
	DisplayName   *string    `gorm:"column:display_name"`
	IsActive      bool       `gorm:"column:is_active;not null;default:true"`
	LastSeenAt    *time.Time `gorm:"column:last_seen_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
