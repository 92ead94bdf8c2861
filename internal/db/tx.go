package db

import (
	"context"
	"database/sql"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so writers can run
// standalone or inside a caller's transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RunInTx runs fn inside one transaction. Any error from fn, a panic, or a
// failed commit leaves nothing behind.
func RunInTx(ctx context.Context, conn *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "db"))

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return err
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			log.Error("failed to rollback transaction", zap.Error(rbErr))
		} else {
			log.Debug("transaction rolled back")
		}
		if p := recover(); p != nil {
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		log.Error("failed to commit transaction", zap.Error(err))
		return err
	}

	committed = true
	return nil
}
