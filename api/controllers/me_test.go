package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storedash-backend/internal/auth"
	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storedash-backend/pkg/errors"
)

type stubIdentityResolver struct {
	session    *auth.Session
	store      *models.Store
	sessionErr error
	tenantErr  error
}

func (s stubIdentityResolver) ResolveSession(context.Context) (*auth.Session, error) {
	return s.session, s.sessionErr
}

func (s stubIdentityResolver) ResolveTenant(context.Context) (*models.Store, error) {
	return s.store, s.tenantErr
}

func TestMe(t *testing.T) {
	store := &models.Store{ID: uuid.New(), OwnerEmail: "owner@example.com"}
	resolver := stubIdentityResolver{
		session: &auth.Session{UserID: uuid.New(), Email: "owner@example.com", StoreID: &store.ID},
		store:   store,
	}

	rec := httptest.NewRecorder()
	Me(resolver, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var got auth.MeResponse
	decodeData(t, rec, &got)
	if got.Email != "owner@example.com" || got.Store == nil || got.Store.ID != store.ID {
		t.Fatalf("unexpected me response %+v", got)
	}
}

func TestMeErrors(t *testing.T) {
	cases := []struct {
		name     string
		resolver stubIdentityResolver
		status   int
		message  string
	}{
		{
			name:     "anonymous",
			resolver: stubIdentityResolver{sessionErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")},
			status:   http.StatusUnauthorized,
			message:  "user not found",
		},
		{
			name: "no tenant",
			resolver: stubIdentityResolver{
				session:   &auth.Session{UserID: uuid.New(), Email: "owner@example.com"},
				tenantErr: pkgerrors.New(pkgerrors.CodeTenantNotFound, "store not found"),
			},
			status:  http.StatusInternalServerError,
			message: "internal server error",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Me(tc.resolver, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, rec.Code)
			}
			if msg := decodeError(t, rec).Error.Message; msg != tc.message {
				t.Fatalf("unexpected message %q", msg)
			}
		})
	}
}
