package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Template is a purchasable video template with a fixed USD price.
type Template struct {
	ID                  uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name                string          `gorm:"column:name;not null"`
	Category            string          `gorm:"column:category;not null"`
	PriceUSD            decimal.Decimal `gorm:"column:price_usd;type:numeric(12,2);not null"`
	ThumbnailURL        string          `gorm:"column:thumbnail_url;not null"`
	SupportsHeadline    bool            `gorm:"column:supports_headline;not null;default:false"`
	SupportsSubheadline bool            `gorm:"column:supports_subheadline;not null;default:false"`
	Active              bool            `gorm:"column:active;not null;default:true"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
