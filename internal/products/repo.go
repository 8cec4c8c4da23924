package products

import (
	"context"

	"github.com/angelmondragon/storedash-backend/internal/repo"
	"github.com/angelmondragon/storedash-backend/pkg/db"
	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists products for a single tenant per call.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to product operations.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

func withRelations(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Category").
		Preload("Orders", func(q *gorm.DB) *gorm.DB {
			return q.Order("created_at DESC")
		})
}

// List returns the store's products with category and orders, newest first.
func (r *Repository) List(ctx context.Context, storeID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := r.Tenant(ctx, storeID).
		Scopes(withRelations).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// FindByID loads a product of the store with its category and orders.
func (r *Repository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.Tenant(ctx, storeID).
		Scopes(db.ByID(id), withRelations).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Exists reports whether id names a product of the store.
func (r *Repository) Exists(ctx context.Context, storeID, id uuid.UUID) (bool, error) {
	var count int64
	err := r.Tenant(ctx, storeID).
		Model(&models.Product{}).
		Scopes(db.ByID(id)).
		Count(&count).Error
	return count > 0, err
}

// Create inserts the product.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Create(product).Error
}

// Update writes the supplied columns to a product of the store and reports
// how many rows matched.
func (r *Repository) Update(ctx context.Context, storeID, id uuid.UUID, updates map[string]any) (int64, error) {
	res := r.Tenant(ctx, storeID).
		Model(&models.Product{}).
		Scopes(db.ByID(id)).
		Updates(updates)
	return res.RowsAffected, res.Error
}
