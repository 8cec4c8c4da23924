package auth

import (
	"github.com/angelmondragon/storedash-backend/internal/stores"
	"github.com/angelmondragon/storedash-backend/internal/users"
	"github.com/google/uuid"
)

// BeginSignInResponse carries the provider URL the browser should visit.
type BeginSignInResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

// CompleteSignInRequest is the provider callback payload.
type CompleteSignInRequest struct {
	State string `json:"state" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

// SignInResponse contains the tokens, user and store produced by a sign-in.
type SignInResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	User         *users.UserDTO   `json:"user"`
	Store        *stores.StoreDTO `json:"store"`
	FirstLogin   bool             `json:"first_login"`
}

// MeResponse describes the resolved identity and tenant of a request.
type MeResponse struct {
	UserID uuid.UUID        `json:"user_id"`
	Email  string           `json:"email"`
	Store  *stores.StoreDTO `json:"store"`
}
