package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storedash-backend/pkg/db"
	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storedash-backend/pkg/errors"
	"github.com/angelmondragon/storedash-backend/pkg/validation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	notFoundMessage         = "product not found"
	categoryNotFoundMessage = "category not found"
	outOfRangeMessage       = "price is too large"
)

// Service exposes tenant-scoped product management.
type Service interface {
	List(ctx context.Context, storeID uuid.UUID) ([]ProductDTO, error)
	Get(ctx context.Context, storeID, productID uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, storeID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, storeID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, storeID, productID uuid.UUID) (*ProductDTO, error)
}

type categoryChecker interface {
	Exists(ctx context.Context, storeID, id uuid.UUID) (bool, error)
}

type guardedDeleter interface {
	DeleteProduct(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error)
}

type service struct {
	repo       *Repository
	categories categoryChecker
	guard      guardedDeleter
}

// NewService constructs a product service.
func NewService(repo *Repository, categories categoryChecker, guard guardedDeleter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if guard == nil {
		return nil, fmt.Errorf("integrity guard required")
	}
	return &service{repo: repo, categories: categories, guard: guard}, nil
}

func (s *service) List(ctx context.Context, storeID uuid.UUID) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// Get returns nil without error when the product is not in the store.
func (s *service) Get(ctx context.Context, storeID, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, storeID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return FromModel(product), nil
}

func (s *service) Create(ctx context.Context, storeID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	input.Name = strings.TrimSpace(input.Name)
	if verr := validation.Struct(input); verr != nil {
		return nil, verr
	}
	if err := s.ensureCategory(ctx, storeID, input.CategoryID); err != nil {
		return nil, err
	}

	product := &models.Product{
		StoreID:     storeID,
		CategoryID:  input.CategoryID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price.Round(2),
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, mapWriteError(err, "create product")
	}
	return s.reload(ctx, storeID, product.ID)
}

func (s *service) Update(ctx context.Context, storeID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		input.Name = &trimmed
	}
	if verr := validation.Struct(input); verr != nil {
		return nil, verr
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		updates["price"] = input.Price.Round(2)
	}
	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, storeID, *input.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *input.CategoryID
	}

	if len(updates) > 0 {
		matched, err := s.repo.Update(ctx, storeID, productID, updates)
		if err != nil {
			return nil, mapWriteError(err, "update product")
		}
		if matched == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
	}
	return s.reload(ctx, storeID, productID)
}

func (s *service) Delete(ctx context.Context, storeID, productID uuid.UUID) (*ProductDTO, error) {
	deleted, err := s.guard.DeleteProduct(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	return FromModel(deleted), nil
}

func (s *service) ensureCategory(ctx context.Context, storeID, categoryID uuid.UUID) error {
	ok, err := s.categories.Exists(ctx, storeID, categoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, categoryNotFoundMessage)
	}
	return nil
}

func (s *service) reload(ctx context.Context, storeID, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, storeID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return FromModel(product), nil
}

func mapWriteError(err error, action string) error {
	switch {
	case db.IsForeignKeyViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, categoryNotFoundMessage)
	case db.IsOutOfRange(err):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, outOfRangeMessage)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
