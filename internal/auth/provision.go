package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/storedash-backend/internal/stores"
	"github.com/angelmondragon/storedash-backend/internal/users"
	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storedash-backend/pkg/errors"
	"github.com/angelmondragon/storedash-backend/pkg/logger"
	"gorm.io/gorm"
)

// errStoreAlreadyAssigned rolls back a provisioning transaction that lost the
// race to assign the user's store.
var errStoreAlreadyAssigned = errors.New("store already assigned")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type provisionMetrics interface {
	IncTenantProvisioned()
}

// Profile is the identity returned by the provider at sign-in.
type Profile struct {
	Email string
	Name  string
	Image string
}

// ProvisionResult carries the user and store after sign-in. Created is true
// only when this call created the store.
type ProvisionResult struct {
	User    *models.User
	Store   *models.Store
	Created bool
}

// Provisioner creates the user's store on first sign-in.
type Provisioner struct {
	tx      txRunner
	users   *users.Repository
	stores  *stores.Repository
	metrics provisionMetrics
	logg    *logger.Logger
}

func NewProvisioner(tx txRunner, usersRepo *users.Repository, storesRepo *stores.Repository, metrics provisionMetrics, logg *logger.Logger) (*Provisioner, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if storesRepo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Provisioner{
		tx:      tx,
		users:   usersRepo,
		stores:  storesRepo,
		metrics: metrics,
		logg:    logg,
	}, nil
}

// Provision upserts the user and, when the user has no store yet, creates one
// and assigns it. Later sign-ins return the existing store.
func (p *Provisioner) Provision(ctx context.Context, profile Profile) (*ProvisionResult, error) {
	email := models.NormalizeEmail(profile.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, userNotFoundMessage)
	}

	var result ProvisionResult
	err := p.tx.WithTx(ctx, func(tx *gorm.DB) error {
		usersTx := p.users.WithTx(tx)
		storesTx := p.stores.WithTx(tx)

		user, err := usersTx.Upsert(ctx, users.UpsertUserDTO{
			Email: email,
			Name:  profile.Name,
			Image: profile.Image,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert user")
		}

		if user.StoreID != nil {
			store, err := loadStore(ctx, storesTx, user)
			if err != nil {
				return err
			}
			result = ProvisionResult{User: user, Store: store}
			return nil
		}

		store, err := storesTx.Create(ctx, user.Email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
		}
		assigned, err := usersTx.AssignStore(ctx, user.ID, store.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign store")
		}
		if !assigned {
			return errStoreAlreadyAssigned
		}
		user.StoreID = &store.ID
		result = ProvisionResult{User: user, Store: store, Created: true}
		return nil
	})
	if errors.Is(err, errStoreAlreadyAssigned) {
		return p.existing(ctx, email)
	}
	if err != nil {
		return nil, err
	}

	if result.Created {
		if p.metrics != nil {
			p.metrics.IncTenantProvisioned()
		}
		logCtx := p.logg.WithStoreID(p.logg.WithUserID(ctx, result.User.ID.String()), result.Store.ID.String())
		p.logg.Info(logCtx, "auth.store.provisioned")
	}
	return &result, nil
}

// existing reloads the winner's assignment after a lost race.
func (p *Provisioner) existing(ctx context.Context, email string) (*ProvisionResult, error) {
	user, err := p.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload user")
	}
	if user.StoreID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeTenantNotFound, storeNotFoundMessage)
	}
	store, err := loadStore(ctx, p.stores, user)
	if err != nil {
		return nil, err
	}
	return &ProvisionResult{User: user, Store: store}, nil
}

func loadStore(ctx context.Context, repo *stores.Repository, user *models.User) (*models.Store, error) {
	store, err := repo.FindByID(ctx, *user.StoreID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeTenantNotFound, storeNotFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}
