package transaction

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

type TransactionContextKey struct{}

func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, TransactionContextKey{}, tx)
}

// Database hands repositories the transaction bound to the context, or the pool.
type Database struct {
	db *gorm.DB
}

// GetTx returns the context's transaction, or the primary. Reselects after a
// unique conflict must see the winning row, so a replica is never used here.
func (t *Database) GetTx(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(TransactionContextKey{}).(*gorm.DB); ok {
		return tx
	}
	return t.db.WithContext(ctx).Clauses(dbresolver.Write).Session(&gorm.Session{})
}

// GetReadTx is GetTx for listings that tolerate replica lag.
func (t *Database) GetReadTx(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(TransactionContextKey{}).(*gorm.DB); ok {
		return tx
	}
	return t.db.WithContext(ctx)
}

// RunInTx runs fn inside one transaction. Repository calls made with the
// context passed to fn join it. An outer transaction on ctx is reused as a
// savepoint, so nested units commit or roll back with their parent.
// Failures that are not already classified, such as a failed commit, are
// reported as database errors.
func (t *Database) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	err := t.GetTx(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
	if err == nil || platformerrors.GetPlatformError(err) != nil {
		return err
	}
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "transaction failed", err, "5c0d7e2a-93b4-4f1e-a8d6-2e7b41c9f053")
}

// Ping checks the primary connection.
func (t *Database) Ping(ctx context.Context) error {
	sqlDB, err := t.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db}
}
