// Package integrity deletes categories and products only when nothing still
// references them.
package integrity

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/storedash-backend/pkg/db"
	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storedash-backend/pkg/errors"
	"github.com/angelmondragon/storedash-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EntityCategory = "category"
	EntityProduct  = "product"

	CategoryNotEmptyMessage = "Category is not empty"
	ProductNotEmptyMessage  = "Product is not empty"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type rejectionRecorder interface {
	IncIntegrityRejection(entity string)
}

// rule describes one parent table and the table whose rows block its delete.
type rule struct {
	entity     string
	table      string
	dependents string
	foreignKey string
	notFound   string
	notEmpty   string
}

var (
	categoryRule = rule{
		entity:     EntityCategory,
		table:      "categories",
		dependents: "products",
		foreignKey: "category_id",
		notFound:   "category not found",
		notEmpty:   CategoryNotEmptyMessage,
	}
	productRule = rule{
		entity:     EntityProduct,
		table:      "products",
		dependents: "orders",
		foreignKey: "product_id",
		notFound:   "product not found",
		notEmpty:   ProductNotEmptyMessage,
	}
)

// Guard performs dependency-checked deletes inside a single transaction.
type Guard struct {
	db      txRunner
	metrics rejectionRecorder
	logg    *logger.Logger
}

// NewGuard builds a guard bound to the given transaction runner.
func NewGuard(dbClient txRunner, metrics rejectionRecorder, logg *logger.Logger) (*Guard, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Guard{db: dbClient, metrics: metrics, logg: logg}, nil
}

// DeleteCategory removes the category when no product references it and
// returns the deleted row.
func (g *Guard) DeleteCategory(ctx context.Context, storeID, categoryID uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := g.guardedDelete(ctx, storeID, categoryID, &category, categoryRule); err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteProduct removes the product when no order references it and returns
// the deleted row.
func (g *Guard) DeleteProduct(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := g.guardedDelete(ctx, storeID, productID, &product, productRule); err != nil {
		return nil, err
	}
	return &product, nil
}

func (g *Guard) guardedDelete(ctx context.Context, storeID, id uuid.UUID, target any, r rule) error {
	err := g.db.WithTx(ctx, func(tx *gorm.DB) error {
		scoped := tx.WithContext(ctx).Scopes(db.TenantScope(storeID), db.ByID(id))
		if err := scoped.First(target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, r.notFound)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+r.entity)
		}

		var dependents int64
		if err := tx.WithContext(ctx).
			Table(r.dependents).
			Where(r.foreignKey+" = ?", id).
			Count(&dependents).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count "+r.dependents)
		}
		if dependents > 0 {
			return pkgerrors.New(pkgerrors.CodeIntegrity, r.notEmpty)
		}

		res := tx.WithContext(ctx).
			Scopes(db.TenantScope(storeID), db.ByID(id)).
			Where(notExistsClause(r)).
			Delete(target)
		if res.Error != nil {
			if db.IsForeignKeyViolation(res.Error) {
				return pkgerrors.Wrap(pkgerrors.CodeIntegrity, res.Error, r.notEmpty)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "delete "+r.entity)
		}
		// a dependent was inserted between the count and the delete.
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeIntegrity, r.notEmpty)
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if pkgerrors.Is(err, pkgerrors.CodeIntegrity) {
		g.refused(ctx, storeID, id, r)
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete "+r.entity)
}

func (g *Guard) refused(ctx context.Context, storeID, id uuid.UUID, r rule) {
	if g.metrics != nil {
		g.metrics.IncIntegrityRejection(r.entity)
	}
	logCtx := g.logg.WithFields(g.logg.WithStoreID(ctx, storeID.String()), map[string]any{
		"entity":    r.entity,
		"entity_id": id.String(),
	})
	g.logg.Warn(logCtx, "integrity.delete.refused")
}

func notExistsClause(r rule) string {
	return fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s d WHERE d.%s = %s.id)", r.dependents, r.foreignKey, r.table)
}
