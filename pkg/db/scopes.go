package db

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantScope restricts a query to rows owned by storeID.
func TenantScope(storeID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("store_id = ?", storeID)
	}
}

// ByID restricts a query to a single primary key.
func ByID(id uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id = ?", id)
	}
}
