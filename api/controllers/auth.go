package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storedash-backend/api/responses"
	"github.com/angelmondragon/storedash-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/storedash-backend/pkg/errors"
	"github.com/angelmondragon/storedash-backend/pkg/logger"
)

// tokenHeader mirrors the access token of a sign-in or refresh response.
const tokenHeader = "X-Storedash-Token"

// AuthGoogleStart returns the Google authorization URL for a new sign-in.
func AuthGoogleStart(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		resp, err := svc.BeginSignIn(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// AuthGoogleCallback completes a sign-in from the provider redirect.
func AuthGoogleCallback(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		query := r.URL.Query()
		if providerErr := strings.TrimSpace(query.Get("error")); providerErr != "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeUnauthorized, "sign-in was not completed").WithDetails(map[string]string{"provider_error": providerErr}))
			return
		}

		resp, err := svc.CompleteSignIn(r.Context(), auth.CompleteSignInRequest{
			State: query.Get("state"),
			Code:  query.Get("code"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(tokenHeader, resp.AccessToken)
		responses.WriteSuccess(w, resp)
	}
}
