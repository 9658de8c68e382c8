// Package dbtest opens throwaway in-memory databases carrying the production gorm models.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/janhq/money-coach/internal/infrastructure/database"
	"github.com/janhq/money-coach/internal/infrastructure/database/dbschema"
	"github.com/janhq/money-coach/internal/infrastructure/database/transaction"
)

const memoryDSN = "file::memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Open returns a migrated in-memory database that is closed when the test ends.
// The pool holds a single connection, so every goroutine sees the same database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(memoryDSN), database.GormConfig("", gormlogger.Silent))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(dbschema.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// OpenDatabase wraps Open in the transaction-aware handle used by repositories.
func OpenDatabase(t testing.TB) (*transaction.Database, *gorm.DB) {
	t.Helper()
	db := Open(t)
	return transaction.NewDatabase(db), db
}

// SeedUser inserts a user row and returns its id.
func SeedUser(t testing.TB, db *gorm.DB, externalID string) uint {
	t.Helper()
	row := &dbschema.User{ExternalID: externalID}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seed user %q: %v", externalID, err)
	}
	return row.ID
}

// SeedConversation inserts an active, unlinked conversation and returns it.
func SeedConversation(t testing.TB, db *gorm.DB, userID uint, chatType string) *dbschema.Conversation {
	t.Helper()
	row := &dbschema.Conversation{
		PublicID:          fmt.Sprintf("conv_seed_%d_%s", userID, chatType),
		UserID:            userID,
		ChatType:          chatType,
		ExternalSessionID: fmt.Sprintf("%d-%s-seed", userID, chatType),
		Status:            "active",
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	return row
}
