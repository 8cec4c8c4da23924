package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/angelmondragon/storedash-backend/api/middleware"
	"github.com/angelmondragon/storedash-backend/api/responses"
	"github.com/angelmondragon/storedash-backend/api/validators"
	pkgAuth "github.com/angelmondragon/storedash-backend/pkg/auth"
	"github.com/angelmondragon/storedash-backend/pkg/auth/session"
	"github.com/angelmondragon/storedash-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storedash-backend/pkg/errors"
	"github.com/angelmondragon/storedash-backend/pkg/logger"
)

type sessionTokenRotator interface {
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

var errNoSessionManager = pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable")

// staleClaims verifies the bearer token's signature but not its expiry, so an
// expired access token can still be refreshed or logged out.
func staleClaims(r *http.Request, cfg config.JWTConfig) (*pkgAuth.AccessTokenClaims, error) {
	token := middleware.BearerToken(r)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	return claims, nil
}

// AuthLogout closes the session behind the presented access token.
func AuthLogout(manager sessionTokenRotator, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := logout(r, manager, cfg); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

func logout(r *http.Request, manager sessionTokenRotator, cfg config.JWTConfig) error {
	if manager == nil {
		return errNoSessionManager
	}
	claims, err := staleClaims(r, cfg)
	if err != nil {
		return err
	}
	if err := manager.Revoke(r.Context(), claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// AuthRefresh trades a refresh token for a new token pair. The new access
// token carries the same user, email and store as the old one.
func AuthRefresh(manager sessionTokenRotator, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pair, err := refresh(r, manager, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set(tokenHeader, pair.AccessToken)
		responses.WriteSuccess(w, pair)
	}
}

func refresh(r *http.Request, manager sessionTokenRotator, cfg config.JWTConfig) (*refreshResponse, error) {
	if manager == nil {
		return nil, errNoSessionManager
	}

	var body refreshRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		return nil, err
	}
	claims, err := staleClaims(r, cfg)
	if err != nil {
		return nil, err
	}

	accessID, refreshToken, err := manager.Rotate(r.Context(), claims.ID, body.RefreshToken)
	switch {
	case errors.Is(err, session.ErrInvalidRefreshToken):
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	accessToken, err := pkgAuth.MintAccessToken(cfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:  claims.UserID,
		Email:   claims.Email,
		StoreID: claims.StoreID,
		JTI:     accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &refreshResponse{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
