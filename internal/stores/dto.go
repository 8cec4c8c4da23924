package stores

import (
	"time"

	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	"github.com/google/uuid"
)

// StoreDTO is the public shape of a tenant.
type StoreDTO struct {
	ID         uuid.UUID `json:"id"`
	OwnerEmail string    `json:"owner_email"`
	CreatedAt  time.Time `json:"created_at"`
}

func FromModel(s *models.Store) *StoreDTO {
	if s == nil {
		return nil
	}
	return &StoreDTO{
		ID:         s.ID,
		OwnerEmail: s.OwnerEmail,
		CreatedAt:  s.CreatedAt,
	}
}
