package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storedash-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	userNotFoundMessage  = "user not found"
	storeNotFoundMessage = "store not found"
)

// Session is the authenticated identity attached to a request.
type Session struct {
	UserID  uuid.UUID
	Email   string
	StoreID *uuid.UUID
}

// SessionProvider returns the session of the current request, or nil when the
// caller is anonymous.
type SessionProvider interface {
	CurrentSession(ctx context.Context) (*Session, error)
}

type storeFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Resolver turns the current session into an identity and its tenant.
type Resolver struct {
	sessions SessionProvider
	stores   storeFinder
}

// NewResolver builds a resolver from its injected dependencies.
func NewResolver(sessions SessionProvider, stores storeFinder) (*Resolver, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session provider required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &Resolver{sessions: sessions, stores: stores}, nil
}

// ResolveSession returns the signed-in identity or an UNAUTHORIZED error.
func (r *Resolver) ResolveSession(ctx context.Context) (*Session, error) {
	sess, err := r.sessions.CurrentSession(ctx)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, userNotFoundMessage)
	}
	if sess == nil || strings.TrimSpace(sess.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, userNotFoundMessage)
	}
	return sess, nil
}

// ResolveTenant returns the store administered by the signed-in identity.
func (r *Resolver) ResolveTenant(ctx context.Context) (*models.Store, error) {
	sess, err := r.ResolveSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess.StoreID == nil || *sess.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeTenantNotFound, storeNotFoundMessage)
	}
	store, err := r.stores.FindByID(ctx, *sess.StoreID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeTenantNotFound, storeNotFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}
