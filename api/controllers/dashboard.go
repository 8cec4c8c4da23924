package controllers

import (
	"net/http"

	"github.com/angelmondragon/storedash-backend/api/responses"
	"github.com/angelmondragon/storedash-backend/api/validators"
	"github.com/angelmondragon/storedash-backend/internal/dashboard"
	pkgerrors "github.com/angelmondragon/storedash-backend/pkg/errors"
	"github.com/angelmondragon/storedash-backend/pkg/logger"
)

// DashboardSummary returns the store's counts, revenue and top sellers.
func DashboardSummary(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}
		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		top, err := validators.ParseQueryInt(r, "top", dashboard.DefaultTopN, 1, dashboard.MaxTopN)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), storeID, top)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
