package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mintmotion/mintmotion-backend/pkg/db/models"
)

// Repository is the persistence boundary for user accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByWallet(ctx context.Context, walletAddress string) (*models.User, error)
	UpsertByWallet(ctx context.Context, walletAddress string) (*models.User, error)
	TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed user repository.
func NewRepository(db *gorm.DB) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &repository{db: db}, nil
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		First(&user, "wallet_address = ?", normalizeWallet(walletAddress)).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertByWallet creates the account on first sight of a wallet and is a
// no-op read afterwards.
func (r *repository) UpsertByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	wallet := normalizeWallet(walletAddress)
	user := models.User{ID: uuid.New(), WalletAddress: wallet, IsActive: true}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wallet_address"}},
			DoNothing: true,
		}).
		Create(&user).Error
	if err != nil {
		return nil, err
	}
	return r.FindByWallet(ctx, wallet)
}

func (r *repository) TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_seen_at", at).Error
}

func normalizeWallet(walletAddress string) string {
	return strings.ToLower(strings.TrimSpace(walletAddress))
}
