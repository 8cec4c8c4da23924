package orders

import (
	"context"
	"testing"

	"github.com/angelmondragon/storedash-backend/internal/products"
	"github.com/angelmondragon/storedash-backend/pkg/db"
	"github.com/angelmondragon/storedash-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storedash-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()), products.NewRepository(client.DB()), client)
	require.NoError(t, err)
	return svc, client
}

func mustProduct(t *testing.T, client *db.Client, storeID uuid.UUID, name string, price int64) *models.Product {
	t.Helper()
	category := &models.Category{StoreID: storeID, Name: name + " category"}
	require.NoError(t, client.DB().Create(category).Error)
	product := &models.Product{StoreID: storeID, CategoryID: category.ID, Name: name, Price: decimal.NewFromInt(price)}
	require.NoError(t, client.DB().Create(product).Error)
	return product
}

func intPtr(v int) *int { return &v }

func TestColaOrderTotal(t *testing.T) {
	svc, client := newTestService(t)
	store := dbtest.MustCreateStore(t, client, "owner@example.com")
	cola := mustProduct(t, client, store.ID, "Cola", 500)
	ctx := context.Background()

	order, err := svc.Create(ctx, store.ID, CreateOrderInput{ProductID: cola.ID, Quantity: 2})
	require.NoError(t, err)
	require.NotNil(t, order.Product)
	require.Equal(t, "Cola", order.Product.Name)
	require.True(t, decimal.NewFromInt(1000).Equal(order.Total), "total %s", order.Total)

	list, err := svc.List(ctx, store.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.True(t, decimal.NewFromInt(1000).Equal(list[0].Total))
}

func TestCreateValidationAndReferences(t *testing.T) {
	svc, client := newTestService(t)
	store := dbtest.MustCreateStore(t, client, "owner@example.com")
	other := dbtest.MustCreateStore(t, client, "other@example.com")
	own := mustProduct(t, client, store.ID, "Cola", 500)
	foreign := mustProduct(t, client, other.ID, "Tea", 300)
	ctx := context.Background()

	_, err := svc.Create(ctx, store.ID, CreateOrderInput{ProductID: own.ID, Quantity: 0})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, store.ID, CreateOrderInput{ProductID: own.ID, Quantity: 1 << 31})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "got %v", err)
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	require.Contains(t, details, "quantity")

	_, err = svc.Create(ctx, store.ID, CreateOrderInput{ProductID: uuid.New(), Quantity: 1})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = svc.Create(ctx, store.ID, CreateOrderInput{ProductID: foreign.ID, Quantity: 1})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestUpdate(t *testing.T) {
	svc, client := newTestService(t)
	store := dbtest.MustCreateStore(t, client, "owner@example.com")
	cola := mustProduct(t, client, store.ID, "Cola", 500)
	tea := mustProduct(t, client, store.ID, "Tea", 300)
	ctx := context.Background()

	order, err := svc.Create(ctx, store.ID, CreateOrderInput{ProductID: cola.ID, Quantity: 2})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, store.ID, order.ID, UpdateOrderInput{Quantity: intPtr(3), ProductID: &tea.ID})
	require.NoError(t, err)
	require.Equal(t, 3, updated.Quantity)
	require.Equal(t, tea.ID, updated.ProductID)
	require.True(t, decimal.NewFromInt(900).Equal(updated.Total))

	_, err = svc.Update(ctx, store.ID, order.ID, UpdateOrderInput{Quantity: intPtr(0)})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	missing := uuid.New()
	_, err = svc.Update(ctx, store.ID, order.ID, UpdateOrderInput{ProductID: &missing})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestTenantIsolation(t *testing.T) {
	svc, client := newTestService(t)
	storeA := dbtest.MustCreateStore(t, client, "a@example.com")
	storeB := dbtest.MustCreateStore(t, client, "b@example.com")
	cola := mustProduct(t, client, storeA.ID, "Cola", 500)
	ctx := context.Background()

	order, err := svc.Create(ctx, storeA.ID, CreateOrderInput{ProductID: cola.ID, Quantity: 1})
	require.NoError(t, err)

	list, err := svc.List(ctx, storeB.ID)
	require.NoError(t, err)
	require.Empty(t, list)

	got, err := svc.Get(ctx, storeB.ID, order.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	_, err = svc.Update(ctx, storeB.ID, order.ID, UpdateOrderInput{Quantity: intPtr(9)})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = svc.Delete(ctx, storeB.ID, order.ID)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	got, err = svc.Get(ctx, storeA.ID, order.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.Quantity)
}

func TestDeleteReturnsDeletedOrder(t *testing.T) {
	svc, client := newTestService(t)
	store := dbtest.MustCreateStore(t, client, "owner@example.com")
	cola := mustProduct(t, client, store.ID, "Cola", 500)
	ctx := context.Background()

	order, err := svc.Create(ctx, store.ID, CreateOrderInput{ProductID: cola.ID, Quantity: 2})
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, store.ID, order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, deleted.ID)
	require.True(t, decimal.NewFromInt(1000).Equal(deleted.Total))

	got, err := svc.Get(ctx, store.ID, order.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestMapWriteErrorTreatsOverflowAsValidation(t *testing.T) {
	err := mapWriteError(&pgconn.PgError{Code: "22003", Message: "integer out of range"}, "create order")
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "got %v", err)

	err = mapWriteError(&pgconn.PgError{Code: "23503"}, "create order")
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound), "got %v", err)
}
