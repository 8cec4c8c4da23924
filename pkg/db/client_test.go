package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/angelmondragon/storedash-backend/pkg/config"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testModel struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), gormConfig(gormlogger.Discard))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := FromConn(db)

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	client := FromConn(newTestDB(t))
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{Driver: config.DriverSQLite}, nil); err == nil {
		t.Fatal("expected missing dsn to fail")
	}
}

func TestNewOpensSQLite(t *testing.T) {
	cfg := config.DBConfig{
		Driver: config.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
	client, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer client.Close()

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
	if got := client.DB().Dialector.Name(); got != "sqlite" {
		t.Fatalf("expected sqlite dialector, got %q", got)
	}
}

func TestTranslatedUniqueViolation(t *testing.T) {
	db := newTestDB(t)
	if err := db.Create(&testModel{Name: "dup"}).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	err := db.Create(&testModel{Name: "dup"}).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected translated duplicate key error, got %v", err)
	}
	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected IsUniqueViolation to match %v", err)
	}
}

func TestViolationHelpers(t *testing.T) {
	pgxUnique := &pgconn.PgError{Code: "23505", ConstraintName: "idx_categories_store_name"}
	if !IsUniqueViolation(pgxUnique, "idx_categories_store_name") {
		t.Fatal("expected pgx unique violation to match constraint")
	}
	if IsUniqueViolation(pgxUnique, "idx_other") {
		t.Fatal("expected constraint mismatch")
	}
	if !IsForeignKeyViolation(fmt.Errorf("wrapped: %w", &pq.Error{Code: "23503"})) {
		t.Fatal("expected pq foreign key violation")
	}
	if !IsForeignKeyViolation(gorm.ErrForeignKeyViolated) {
		t.Fatal("expected translated foreign key violation")
	}
	if IsForeignKeyViolation(nil) || IsUniqueViolation(nil, "") {
		t.Fatal("nil errors never match")
	}
	if IsForeignKeyViolation(errors.New("boom")) {
		t.Fatal("unrelated error should not match")
	}
	if !IsOutOfRange(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "22003"})) {
		t.Fatal("expected pgx numeric out of range")
	}
	if !IsOutOfRange(&pq.Error{Code: "22003"}) {
		t.Fatal("expected pq numeric out of range")
	}
	if IsOutOfRange(pgxUnique) || IsOutOfRange(nil) {
		t.Fatal("unique violation is not out of range")
	}
}
