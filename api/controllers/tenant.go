package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storedash-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/storedash-backend/pkg/errors"
)

// storeIDFromRequest reads the tenant seeded by the Tenant middleware.
func storeIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.StoreIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeTenantNotFound, "store context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeTenantNotFound, err, "invalid store id")
	}
	return id, nil
}

func notFound(entity string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
}
