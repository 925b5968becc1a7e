package outbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mintmotion/mintmotion-backend/pkg/db/models"
	"github.com/mintmotion/mintmotion-backend/pkg/enums"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(&event).Error
}

func (r *Repository) ExistsTx(tx *gorm.DB, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID) (bool, error) {
	if tx == nil {
		return false, errors.New("transaction required")
	}
	var count int64
	err := tx.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_type = ? AND aggregate_id = ?", eventType, aggregateType, aggregateID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) FetchUnpublished(limit int) ([]models.OutboxEvent, error) {
	var rows []models.OutboxEvent
	err := r.db.Where("published_at IS NULL").
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublished(id uuid.UUID) error {
	return r.db.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"published_at": time.Now(),
		}).Error
}

func (r *Repository) MarkFailed(id uuid.UUID, err error) error {
	return r.db.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    err.Error(),
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

// FetchUnpublishedForPublish locks a batch of publishable rows for the
// duration of the surrounding transaction. SKIP LOCKED lets concurrent
// publisher instances drain the table without contending on the same rows.
func (r *Repository) FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	var rows []models.OutboxEvent
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("published_at IS NULL AND attempt_count < ?", maxAttempts).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"published_at": time.Now(),
		}).Error
}

func (r *Repository) MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    err.Error(),
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

// MarkTerminalTx pins attempt_count at the retry ceiling so the row falls
// out of future publish batches while staying queryable for operators.
func (r *Repository) MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    err.Error(),
			"attempt_count": terminalAttempts,
		}).Error
}
