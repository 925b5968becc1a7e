package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mintmotion/mintmotion-backend/pkg/db/models"
	"github.com/mintmotion/mintmotion-backend/pkg/enums"
	"github.com/mintmotion/mintmotion-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateTransaction(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error)
	CreateRecords(ctx context.Context, records []models.Record) error
	FindByTxHash(ctx context.Context, txHash string) (*models.Transaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[models.Transaction], error)
	FindRecord(ctx context.Context, recordID uuid.UUID) (*models.Record, error)
	UpdateRecordStatus(ctx context.Context, recordID uuid.UUID, status enums.RecordStatus, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateTransaction(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error) {
	if err := r.db.WithContext(ctx).Create(transaction).Error; err != nil {
		return nil, err
	}
	return transaction, nil
}

func (r *repository) CreateRecords(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&records).Error
}

func (r *repository) FindByTxHash(ctx context.Context, txHash string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Records").
		Where("tx_hash = ?", txHash).
		First(&transaction).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Records").
		Preload("Network").
		Where("id = ?", id).
		First(&transaction).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[models.Transaction], error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Preload("Records").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Transaction
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	page := &pagination.Page[models.Transaction]{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		last := page.Items[len(page.Items)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (r *repository) FindRecord(ctx context.Context, recordID uuid.UUID) (*models.Record, error) {
	var record models.Record
	err := r.db.WithContext(ctx).Where("id = ?", recordID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) UpdateRecordStatus(ctx context.Context, recordID uuid.UUID, status enums.RecordStatus, updates map[string]any) error {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = status
	return r.db.WithContext(ctx).
		Model(&models.Record{}).
		Where("id = ?", recordID).
		Updates(updates).Error
}
