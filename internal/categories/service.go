package categories

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
	NameExistsMessage = "Category name already exists"
	notFoundMessage   = "category not found"

	uniqueNameIndex = "idx_categories_store_name"
)

// Service exposes tenant-scoped category management.
type Service interface {
	List(ctx context.Context, storeID uuid.UUID) ([]CategoryDTO, error)
	Get(ctx context.Context, storeID, categoryID uuid.UUID) (*CategoryDTO, error)
	Create(ctx context.Context, storeID uuid.UUID, input CreateCategoryInput) (*CategoryDTO, error)
	Update(ctx context.Context, storeID, categoryID uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error)
	Delete(ctx context.Context, storeID, categoryID uuid.UUID) (*CategoryDTO, error)
}

type guardedDeleter interface {
	DeleteCategory(ctx context.Context, storeID, categoryID uuid.UUID) (*models.Category, error)
}

type service struct {
	repo  *Repository
	guard guardedDeleter
}

// NewService constructs a category service.
func NewService(repo *Repository, guard guardedDeleter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if guard == nil {
		return nil, fmt.Errorf("integrity guard required")
	}
	return &service{repo: repo, guard: guard}, nil
}

func (s *service) List(ctx context.Context, storeID uuid.UUID) ([]CategoryDTO, error) {
	rows, err := s.repo.List(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// Get returns nil without error when the category is not in the store.
func (s *service) Get(ctx context.Context, storeID, categoryID uuid.UUID) (*CategoryDTO, error) {
	category, err := s.repo.FindByID(ctx, storeID, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return FromModel(category), nil
}

func (s *service) Create(ctx context.Context, storeID uuid.UUID, input CreateCategoryInput) (*CategoryDTO, error) {
	input.Name = strings.TrimSpace(input.Name)
	if verr := validation.Struct(input); verr != nil {
		return nil, verr
	}

	taken, err := s.repo.NameTaken(ctx, storeID, input.Name, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category name")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, NameExistsMessage)
	}

	category := &models.Category{
		StoreID:     storeID,
		Name:        input.Name,
		Description: input.Description,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, mapWriteError(err, "create category")
	}
	return FromModel(category), nil
}

func (s *service) Update(ctx context.Context, storeID, categoryID uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error) {
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		input.Name = &trimmed
	}
	if verr := validation.Struct(input); verr != nil {
		return nil, verr
	}

	updates := map[string]any{}
	if input.Name != nil {
		taken, err := s.repo.NameTaken(ctx, storeID, *input.Name, &categoryID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category name")
		}
		if taken {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, NameExistsMessage)
		}
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}

	if len(updates) > 0 {
		matched, err := s.repo.Update(ctx, storeID, categoryID, updates)
		if err != nil {
			return nil, mapWriteError(err, "update category")
		}
		if matched == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
	}

	category, err := s.repo.FindByID(ctx, storeID, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return FromModel(category), nil
}

func (s *service) Delete(ctx context.Context, storeID, categoryID uuid.UUID) (*CategoryDTO, error) {
	deleted, err := s.guard.DeleteCategory(ctx, storeID, categoryID)
	if err != nil {
		return nil, err
	}
	return FromModel(deleted), nil
}

func mapWriteError(err error, action string) error {
	if db.IsUniqueViolation(err, uniqueNameIndex) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, NameExistsMessage)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
