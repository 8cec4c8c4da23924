package categories

import (
	"time"

	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCategoryInput is the validated payload for a new category.
type CreateCategoryInput struct {
	Name        string  `json:"name" validate:"required,min=1,max=120"`
	Description *string `json:"description,omitempty" validate:"omitnil,max=1000"`
}

// UpdateCategoryInput carries the fields to change; nil fields are kept.
type UpdateCategoryInput struct {
	Name        *string `json:"name,omitempty" validate:"omitnil,min=1,max=120"`
	Description *string `json:"description,omitempty" validate:"omitnil,max=1000"`
}

// CategoryDTO is the public shape of a category.
type CategoryDTO struct {
	ID          uuid.UUID        `json:"id"`
	StoreID     uuid.UUID        `json:"store_id"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Products    []ProductSummary `json:"products"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ProductSummary is a product as listed under its category.
type ProductSummary struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

func FromModel(c *models.Category) *CategoryDTO {
	if c == nil {
		return nil
	}
	products := make([]ProductSummary, 0, len(c.Products))
	for _, p := range c.Products {
		products = append(products, ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price})
	}
	return &CategoryDTO{
		ID:          c.ID,
		StoreID:     c.StoreID,
		Name:        c.Name,
		Description: c.Description,
		Products:    products,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
