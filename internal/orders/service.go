package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/storedash-backend/pkg/db"
	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storedash-backend/pkg/errors"
	"github.com/angelmondragon/storedash-backend/pkg/validation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	notFoundMessage        = "order not found"
	productNotFoundMessage = "product not found"
	outOfRangeMessage      = "quantity is too large"
)

// Service exposes tenant-scoped order management.
type Service interface {
	List(ctx context.Context, storeID uuid.UUID) ([]OrderDTO, error)
	Get(ctx context.Context, storeID, orderID uuid.UUID) (*OrderDTO, error)
	Create(ctx context.Context, storeID uuid.UUID, input CreateOrderInput) (*OrderDTO, error)
	Update(ctx context.Context, storeID, orderID uuid.UUID, input UpdateOrderInput) (*OrderDTO, error)
	Delete(ctx context.Context, storeID, orderID uuid.UUID) (*OrderDTO, error)
}

type productChecker interface {
	Exists(ctx context.Context, storeID, id uuid.UUID) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     *Repository
	products productChecker
	tx       txRunner
}

// NewService constructs an order service.
func NewService(repo *Repository, products productChecker, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, products: products, tx: tx}, nil
}

func (s *service) List(ctx context.Context, storeID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.List(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// Get returns nil without error when the order is not in the store.
func (s *service) Get(ctx context.Context, storeID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, storeID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return FromModel(order), nil
}

func (s *service) Create(ctx context.Context, storeID uuid.UUID, input CreateOrderInput) (*OrderDTO, error) {
	if verr := validation.Struct(input); verr != nil {
		return nil, verr
	}
	if err := s.ensureProduct(ctx, storeID, input.ProductID); err != nil {
		return nil, err
	}

	order := &models.Order{
		StoreID:   storeID,
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, mapWriteError(err, "create order")
	}
	return s.reload(ctx, storeID, order.ID)
}

func (s *service) Update(ctx context.Context, storeID, orderID uuid.UUID, input UpdateOrderInput) (*OrderDTO, error) {
	if verr := validation.Struct(input); verr != nil {
		return nil, verr
	}

	updates := map[string]any{}
	if input.Quantity != nil {
		updates["quantity"] = *input.Quantity
	}
	if input.ProductID != nil {
		if err := s.ensureProduct(ctx, storeID, *input.ProductID); err != nil {
			return nil, err
		}
		updates["product_id"] = *input.ProductID
	}

	if len(updates) > 0 {
		matched, err := s.repo.Update(ctx, storeID, orderID, updates)
		if err != nil {
			return nil, mapWriteError(err, "update order")
		}
		if matched == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
	}
	return s.reload(ctx, storeID, orderID)
}

// Delete removes the order; orders have no dependents.
func (s *service) Delete(ctx context.Context, storeID, orderID uuid.UUID) (*OrderDTO, error) {
	var deleted *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := txRepo.FindByID(ctx, storeID, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		matched, err := txRepo.Delete(ctx, storeID, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		if matched == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
		deleted = order
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	return FromModel(deleted), nil
}

func (s *service) ensureProduct(ctx context.Context, storeID, productID uuid.UUID) error {
	ok, err := s.products.Exists(ctx, storeID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, productNotFoundMessage)
	}
	return nil
}

func (s *service) reload(ctx context.Context, storeID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, storeID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return FromModel(order), nil
}

func mapWriteError(err error, action string) error {
	switch {
	case db.IsForeignKeyViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, productNotFoundMessage)
	case db.IsOutOfRange(err):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, outOfRangeMessage)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
