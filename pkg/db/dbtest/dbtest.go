// Package dbtest opens throwaway SQLite databases with the full schema for
// repository and service tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/angelmondragon/storedash-backend/pkg/config"
	"github.com/angelmondragon/storedash-backend/pkg/db"
	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	"github.com/google/uuid"
)

// Open returns a client on a private in-memory database with foreign keys
// enforced and every model migrated. The database is closed on cleanup.
func Open(t testing.TB) *db.Client {
	t.Helper()

	cfg := config.DBConfig{
		Driver: config.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString()),
	}
	client, err := db.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	if err := client.DB().AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return client
}

// MustCreateStore inserts a store owned by email.
func MustCreateStore(t testing.TB, client *db.Client, email string) *models.Store {
	t.Helper()
	store := &models.Store{OwnerEmail: email}
	if err := client.DB().Create(store).Error; err != nil {
		t.Fatalf("create store: %v", err)
	}
	return store
}
