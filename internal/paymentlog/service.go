package paymentlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mintmotion/mintmotion-backend/pkg/db/models"
	"github.com/mintmotion/mintmotion-backend/pkg/enums"
	"github.com/mintmotion/mintmotion-backend/pkg/logger"
)

// Entry is one audit event to append.
type Entry struct {
	UserID    *uuid.UUID
	TxHash    *string
	EventType enums.PaymentLogEventType
	Detail    map[string]any
}

// Service appends payment audit entries. Every write is best effort: a
// failed append is logged and swallowed, never surfaced to the caller.
type Service struct {
	db   *gorm.DB
	logg *logger.Logger
}

// NewService builds the audit log service.
func NewService(db *gorm.DB, logg *logger.Logger) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &Service{db: db, logg: logg}, nil
}

// Append writes one audit row. Errors are logged, not returned.
func (s *Service) Append(ctx context.Context, entry Entry) {
	row := models.PaymentLog{
		UserID:    entry.UserID,
		TxHash:    entry.TxHash,
		EventType: entry.EventType,
	}
	if entry.Detail != nil {
		detail, err := json.Marshal(entry.Detail)
		if err == nil {
			row.Detail = detail
		}
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil && s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("payment audit append failed: %v", err))
	}
}
