package repo

import (
	"context"

	"github.com/angelmondragon/storedash-backend/pkg/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Tenant returns a context-bound connection restricted to storeID rows.
func (b Base) Tenant(ctx context.Context, storeID uuid.UUID) *gorm.DB {
	return b.DB(ctx).Scopes(db.TenantScope(storeID))
}

// WithTx returns a copy of the base bound to tx.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}
