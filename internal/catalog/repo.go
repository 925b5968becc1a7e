package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mintmotion/mintmotion-backend/pkg/db/models"
)

// Repository reads the template catalog and user projects.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error)
	ListActiveTemplates(ctx context.Context) ([]models.Template, error)
	FindProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListProjectsByUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error)
	CreateProject(ctx context.Context, project *models.Project) (*models.Project, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	var template models.Template
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *repository) ListActiveTemplates(ctx context.Context) ([]models.Template, error) {
	var templates []models.Template
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("category ASC").
		Order("name ASC").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *repository) FindProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *repository) ListProjectsByUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *repository) CreateProject(ctx context.Context, project *models.Project) (*models.Project, error) {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}
