package repositories

import (
	"context"

	"openshelf/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// LibraryRepository handles library branch data access
type LibraryRepository struct {
	db *gorm.DB
}

// NewLibraryRepository creates a new library repository
func NewLibraryRepository(db *gorm.DB) *LibraryRepository {
	return &LibraryRepository{db: db}
}

// Create creates a new library branch
func (r *LibraryRepository) Create(ctx context.Context, library *models.Library) error {
	return r.db.WithContext(ctx).Create(library).Error
}

// GetByID gets a library by ID
func (r *LibraryRepository) GetByID(ctx context.Context, id uint) (*models.Library, error) {
	var library models.Library
	err := r.db.WithContext(ctx).First(&library, id).Error
	if err != nil {
		return nil, err
	}
	return &library, nil
}

// GetActiveByID gets a library by ID, skipping deactivated branches
func (r *LibraryRepository) GetActiveByID(ctx context.Context, id uint) (*models.Library, error) {
	var library models.Library
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Where("is_active = ?", true).
		First(&library).Error
	if err != nil {
		return nil, err
	}
	return &library, nil
}

// GetByName gets a library by name
func (r *LibraryRepository) GetByName(ctx context.Context, name string) (*models.Library, error) {
	var library models.Library
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&library).Error
	if err != nil {
		return nil, err
	}
	return &library, nil
}

// Update updates a library
func (r *LibraryRepository) Update(ctx context.Context, library *models.Library) error {
	return r.db.WithContext(ctx).Save(library).Error
}

// Delete soft deletes a library
func (r *LibraryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Library{}, id).Error
}

// List lists libraries with pagination
func (r *LibraryRepository) List(ctx context.Context, offset, limit int) ([]*models.Library, int64, error) {
	var libraries []*models.Library
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Library{}).Where("is_active = ?", true)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("name ASC").Offset(offset).Limit(limit).Find(&libraries).Error
	return libraries, total, err
}
