package categories

import (
	"context"

	"github.com/angelmondragon/storedash-backend/internal/repo"
	"github.com/angelmondragon/storedash-backend/pkg/db"
	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists categories for a single tenant per call.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to category operations.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// List returns the store's categories with their products, newest first.
func (r *Repository) List(ctx context.Context, storeID uuid.UUID) ([]models.Category, error) {
	var rows []models.Category
	err := r.Tenant(ctx, storeID).
		Preload("Products", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at DESC")
		}).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// FindByID loads a category of the store with its products.
func (r *Repository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.Tenant(ctx, storeID).
		Scopes(db.ByID(id)).
		Preload("Products", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at DESC")
		}).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Exists reports whether id names a category of the store.
func (r *Repository) Exists(ctx context.Context, storeID, id uuid.UUID) (bool, error) {
	var count int64
	err := r.Tenant(ctx, storeID).
		Model(&models.Category{}).
		Scopes(db.ByID(id)).
		Count(&count).Error
	return count > 0, err
}

// NameTaken reports whether another category of the store already uses name.
func (r *Repository) NameTaken(ctx context.Context, storeID uuid.UUID, name string, exclude *uuid.UUID) (bool, error) {
	q := r.Tenant(ctx, storeID).
		Model(&models.Category{}).
		Where("name = ?", name)
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the category.
func (r *Repository) Create(ctx context.Context, category *models.Category) error {
	return r.DB(ctx).Create(category).Error
}

// Update writes the supplied columns to a category of the store and reports
// how many rows matched.
func (r *Repository) Update(ctx context.Context, storeID, id uuid.UUID, updates map[string]any) (int64, error) {
	res := r.Tenant(ctx, storeID).
		Model(&models.Category{}).
		Scopes(db.ByID(id)).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// Count returns how many categories the store has.
func (r *Repository) Count(ctx context.Context, storeID uuid.UUID) (int64, error) {
	var count int64
	err := r.Tenant(ctx, storeID).Model(&models.Category{}).Count(&count).Error
	return count, err
}
