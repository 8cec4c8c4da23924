package users

import (
	"time"

	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	"github.com/google/uuid"
)

// UserDTO is the transport shape of a signed-in user.
type UserDTO struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Name      *string    `json:"name,omitempty"`
	Image     *string    `json:"image,omitempty"`
	StoreID   *uuid.UUID `json:"store_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UpsertUserDTO holds the profile fields refreshed on every sign-in.
type UpsertUserDTO struct {
	Email string
	Name  string
	Image string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Image:     u.Image,
		StoreID:   u.StoreID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (d UpsertUserDTO) ToModel() *models.User {
	return &models.User{
		Email: models.NormalizeEmail(d.Email),
		Name:  optional(d.Name),
		Image: optional(d.Image),
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
