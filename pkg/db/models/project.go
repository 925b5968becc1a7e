package models

import (
	"time"

	"github.com/google/uuid"
)

// Project holds the branding bundle a user customizes templates with.
type Project struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Name            string    `gorm:"column:name;not null"`
	Ticker          string    `gorm:"column:ticker;not null"`
	BackgroundColor string    `gorm:"column:background_color;not null"`
	AccentColor     *string   `gorm:"column:accent_color"`
	LogoURL         *string   `gorm:"column:logo_url"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
