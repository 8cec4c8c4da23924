package orders

import (
	"context"

	"github.com/angelmondragon/storedash-backend/internal/repo"
	"github.com/angelmondragon/storedash-backend/pkg/db"
	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists orders for a single tenant per call.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to order operations.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// List returns the store's orders with their product, newest first.
func (r *Repository) List(ctx context.Context, storeID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.Tenant(ctx, storeID).
		Preload("Product").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// FindByID loads an order of the store with its product.
func (r *Repository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.Tenant(ctx, storeID).
		Scopes(db.ByID(id)).
		Preload("Product").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Create inserts the order.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Create(order).Error
}

// Update writes the supplied columns to an order of the store and reports how
// many rows matched.
func (r *Repository) Update(ctx context.Context, storeID, id uuid.UUID, updates map[string]any) (int64, error) {
	res := r.Tenant(ctx, storeID).
		Model(&models.Order{}).
		Scopes(db.ByID(id)).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// Delete removes an order of the store and reports how many rows matched.
func (r *Repository) Delete(ctx context.Context, storeID, id uuid.UUID) (int64, error) {
	res := r.Tenant(ctx, storeID).
		Scopes(db.ByID(id)).
		Delete(&models.Order{})
	return res.RowsAffected, res.Error
}
