package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the tenant. Every category, product and order row carries its id.
type Store struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OwnerEmail string    `gorm:"column:owner_email;type:text;not null;index:idx_stores_owner_email"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Store) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
