package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storedash-backend/api/responses"
	"github.com/angelmondragon/storedash-backend/internal/auth"
	"github.com/angelmondragon/storedash-backend/internal/stores"
	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storedash-backend/pkg/errors"
	"github.com/angelmondragon/storedash-backend/pkg/logger"
)

type identityResolver interface {
	ResolveSession(ctx context.Context) (*auth.Session, error)
	ResolveTenant(ctx context.Context) (*models.Store, error)
}

// Me returns the signed-in identity and the store it administers.
func Me(resolver identityResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity resolver unavailable"))
			return
		}

		sess, err := resolver.ResolveSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := resolver.ResolveTenant(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, auth.MeResponse{
			UserID: sess.UserID,
			Email:  sess.Email,
			Store:  stores.FromModel(store),
		})
	}
}
