package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Order struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	StoreID   uuid.UUID `gorm:"column:store_id;type:uuid;not null;index:idx_orders_store_id"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:idx_orders_product_id"`
	Quantity  int       `gorm:"column:quantity;not null;check:chk_orders_quantity,quantity >= 1"`
	Product   *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Total returns quantity times the product price, or zero when the product
// is not loaded.
func (o Order) Total() decimal.Decimal {
	if o.Product == nil {
		return decimal.Zero
	}
	return o.Product.Price.Mul(decimal.NewFromInt(int64(o.Quantity)))
}
