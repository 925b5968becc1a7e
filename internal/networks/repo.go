package networks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mintmotion/mintmotion-backend/pkg/db/models"
)

// Repository reads the payment-enabled network configuration.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByChainID(ctx context.Context, chainID int64) (*models.BlockchainNetwork, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.BlockchainNetwork, error)
	ListActive(ctx context.Context) ([]models.BlockchainNetwork, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a network repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByChainID(ctx context.Context, chainID int64) (*models.BlockchainNetwork, error) {
	var network models.BlockchainNetwork
	err := r.db.WithContext(ctx).Where("chain_id = ?", chainID).First(&network).Error
	if err != nil {
		return nil, err
	}
	return &network, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.BlockchainNetwork, error) {
	var network models.BlockchainNetwork
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&network).Error
	if err != nil {
		return nil, err
	}
	return &network, nil
}

func (r *repository) ListActive(ctx context.Context) ([]models.BlockchainNetwork, error) {
	var rows []models.BlockchainNetwork
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("chain_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
