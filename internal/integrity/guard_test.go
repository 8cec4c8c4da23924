package integrity

import (
	"context"
	"io"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/angelmondragon/storedash-backend/pkg/db"
	"github.com/angelmondragon/storedash-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storedash-backend/pkg/errors"
	"github.com/angelmondragon/storedash-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type countingRejections struct {
	byEntity map[string]int
}

func (c *countingRejections) IncIntegrityRejection(entity string) {
	if c.byEntity == nil {
		c.byEntity = map[string]int{}
	}
	c.byEntity[entity]++
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newGuard(t *testing.T, client *db.Client) (*Guard, *countingRejections) {
	t.Helper()
	rejections := &countingRejections{}
	guard, err := NewGuard(client, rejections, quietLogger())
	require.NoError(t, err)
	return guard, rejections
}

func seedCategory(t *testing.T, client *db.Client, storeID uuid.UUID, name string) *models.Category {
	t.Helper()
	category := &models.Category{StoreID: storeID, Name: name}
	require.NoError(t, client.DB().Create(category).Error)
	return category
}

func seedProduct(t *testing.T, client *db.Client, storeID, categoryID uuid.UUID) *models.Product {
	t.Helper()
	product := &models.Product{StoreID: storeID, CategoryID: categoryID, Name: "Cola", Price: decimal.NewFromInt(500)}
	require.NoError(t, client.DB().Create(product).Error)
	return product
}

func TestDeleteCategory(t *testing.T) {
	client := dbtest.Open(t)
	guard, rejections := newGuard(t, client)
	store := dbtest.MustCreateStore(t, client, "owner@example.com")
	ctx := context.Background()

	empty := seedCategory(t, client, store.ID, "Empty")
	deleted, err := guard.DeleteCategory(ctx, store.ID, empty.ID)
	require.NoError(t, err)
	require.Equal(t, empty.ID, deleted.ID)
	require.Equal(t, "Empty", deleted.Name)

	var remaining int64
	require.NoError(t, client.DB().Model(&models.Category{}).Where("id = ?", empty.ID).Count(&remaining).Error)
	require.Zero(t, remaining)

	full := seedCategory(t, client, store.ID, "Drinks")
	seedProduct(t, client, store.ID, full.ID)

	_, err = guard.DeleteCategory(ctx, store.ID, full.ID)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeIntegrity), "got %v", err)
	require.Equal(t, CategoryNotEmptyMessage, pkgerrors.As(err).Message())
	require.NoError(t, client.DB().Model(&models.Category{}).Where("id = ?", full.ID).Count(&remaining).Error)
	require.EqualValues(t, 1, remaining)
	require.Equal(t, 1, rejections.byEntity[EntityCategory])
}

func TestDeleteProduct(t *testing.T) {
	client := dbtest.Open(t)
	guard, rejections := newGuard(t, client)
	store := dbtest.MustCreateStore(t, client, "owner@example.com")
	category := seedCategory(t, client, store.ID, "Drinks")
	ctx := context.Background()

	unsold := seedProduct(t, client, store.ID, category.ID)
	deleted, err := guard.DeleteProduct(ctx, store.ID, unsold.ID)
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(500).Equal(deleted.Price))

	sold := seedProduct(t, client, store.ID, category.ID)
	require.NoError(t, client.DB().Create(&models.Order{StoreID: store.ID, ProductID: sold.ID, Quantity: 2}).Error)

	_, err = guard.DeleteProduct(ctx, store.ID, sold.ID)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeIntegrity), "got %v", err)
	require.Equal(t, ProductNotEmptyMessage, pkgerrors.As(err).Message())
	require.Equal(t, 1, rejections.byEntity[EntityProduct])

	var remaining int64
	require.NoError(t, client.DB().Model(&models.Product{}).Where("id = ?", sold.ID).Count(&remaining).Error)
	require.EqualValues(t, 1, remaining)
}

func TestDeleteIsTenantScoped(t *testing.T) {
	client := dbtest.Open(t)
	guard, rejections := newGuard(t, client)
	owner := dbtest.MustCreateStore(t, client, "a@example.com")
	other := dbtest.MustCreateStore(t, client, "b@example.com")
	category := seedCategory(t, client, owner.ID, "Drinks")
	product := seedProduct(t, client, owner.ID, category.ID)

	_, err := guard.DeleteCategory(context.Background(), other.ID, category.ID)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	_, err = guard.DeleteProduct(context.Background(), other.ID, product.ID)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	_, err = guard.DeleteCategory(context.Background(), owner.ID, uuid.New())
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	require.Empty(t, rejections.byEntity)
}

func TestConstrainedDeleteRefusesLateDependent(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	conn, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, PreferSimpleProtocol: true}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	guard, rejections := newGuard(t, db.FromConn(conn))
	storeID := uuid.New()
	categoryID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "categories" WHERE store_id = $1 AND id = $2`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "store_id", "name"}).AddRow(categoryID.String(), storeID.String(), "Drinks"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "products" WHERE category_id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "categories" WHERE store_id = $1 AND id = $2 AND NOT EXISTS (SELECT 1 FROM products d WHERE d.category_id = categories.id)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err = guard.DeleteCategory(context.Background(), storeID, categoryID)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeIntegrity), "got %v", err)
	require.Equal(t, 1, rejections.byEntity[EntityCategory])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewGuardRequiresDependencies(t *testing.T) {
	_, err := NewGuard(nil, nil, quietLogger())
	require.Error(t, err)
	_, err = NewGuard(dbtest.Open(t), nil, nil)
	require.Error(t, err)
}
