package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mintmotion/mintmotion-backend/pkg/enums"
)

// Transaction is a settled on-chain payment and the order it paid for.
// TxHash carries a unique index so the same payment can never produce
// two orders, regardless of how many submitters race.
type Transaction struct {
	ID            uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	NetworkID     uuid.UUID               `gorm:"column:network_id;type:uuid;not null"`
	TxHash        string                  `gorm:"column:tx_hash;not null;uniqueIndex:ux_transactions_tx_hash"`
	WalletAddress string                  `gorm:"column:wallet_address;not null"`
	TotalUSD      decimal.Decimal         `gorm:"column:total_usd;type:numeric(12,2);not null"`
	TotalNative   decimal.Decimal         `gorm:"column:total_native;type:numeric(30,18);not null"`
	Symbol        string                  `gorm:"column:symbol;not null"`
	Status        enums.TransactionStatus `gorm:"column:status;not null"`
	ConfirmedAt   *time.Time              `gorm:"column:confirmed_at"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`

	User    *User              `gorm:"foreignKey:UserID"`
	Network *BlockchainNetwork `gorm:"foreignKey:NetworkID"`
	Records []Record           `gorm:"foreignKey:TransactionID"`
}
