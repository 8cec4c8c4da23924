package products

import (
	"time"

	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductInput is the validated payload for a new product.
type CreateProductInput struct {
	Name        string           `json:"name" validate:"required,min=1,max=120"`
	Description *string          `json:"description,omitempty" validate:"omitnil,max=2000"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0,lt=10000000000"`
	CategoryID  uuid.UUID        `json:"category_id" validate:"required"`
}

// UpdateProductInput carries the fields to change; nil fields are kept.
type UpdateProductInput struct {
	Name        *string          `json:"name,omitempty" validate:"omitnil,min=1,max=120"`
	Description *string          `json:"description,omitempty" validate:"omitnil,max=2000"`
	Price       *decimal.Decimal `json:"price,omitempty" validate:"omitnil,gte=0,lt=10000000000"`
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
}

// ProductDTO is the public shape of a product.
type ProductDTO struct {
	ID          uuid.UUID        `json:"id"`
	StoreID     uuid.UUID        `json:"store_id"`
	CategoryID  uuid.UUID        `json:"category_id"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Price       decimal.Decimal  `json:"price"`
	Category    *CategorySummary `json:"category,omitempty"`
	Orders      []OrderSummary   `json:"orders"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CategorySummary is the category attached to a product.
type CategorySummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// OrderSummary is an order listed under its product.
type OrderSummary struct {
	ID        uuid.UUID       `json:"id"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	orders := make([]OrderSummary, 0, len(p.Orders))
	for _, o := range p.Orders {
		orders = append(orders, OrderSummary{
			ID:        o.ID,
			Quantity:  o.Quantity,
			Total:     p.Price.Mul(decimal.NewFromInt(int64(o.Quantity))),
			CreatedAt: o.CreatedAt,
		})
	}
	dto := &ProductDTO{
		ID:          p.ID,
		StoreID:     p.StoreID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Orders:      orders,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Category != nil {
		dto.Category = &CategorySummary{ID: p.Category.ID, Name: p.Category.Name}
	}
	return dto
}
