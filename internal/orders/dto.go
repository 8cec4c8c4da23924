package orders

import (
	"time"

	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderInput is the validated payload for a new order.
type CreateOrderInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=2147483647"`
}

// UpdateOrderInput carries the fields to change; nil fields are kept.
type UpdateOrderInput struct {
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	Quantity  *int       `json:"quantity,omitempty" validate:"omitnil,min=1,max=2147483647"`
}

// OrderDTO is the public shape of an order.
type OrderDTO struct {
	ID        uuid.UUID       `json:"id"`
	StoreID   uuid.UUID       `json:"store_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
	Product   *ProductSummary `json:"product,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProductSummary is the product an order was placed for.
type ProductSummary struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:        o.ID,
		StoreID:   o.StoreID,
		ProductID: o.ProductID,
		Quantity:  o.Quantity,
		Total:     o.Total(),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	if o.Product != nil {
		dto.Product = &ProductSummary{ID: o.Product.ID, Name: o.Product.Name, Price: o.Product.Price}
	}
	return dto
}
