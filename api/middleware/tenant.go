package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storedash-backend/api/responses"
	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	"github.com/angelmondragon/storedash-backend/pkg/logger"
)

type tenantResolver interface {
	ResolveTenant(ctx context.Context) (*models.Store, error)
}

// Tenant resolves the caller's store and seeds it into the request context.
// Requests without a resolvable store stop here.
func Tenant(resolver tenantResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store, err := resolver.ResolveTenant(r.Context())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithStoreID(r.Context(), store.ID.String())
			if logg != nil {
				ctx = logg.WithStoreID(ctx, store.ID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
