package db

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// InTx runs fn inside a transaction with the given isolation level. The transaction commits only
// when fn returns nil; any error (including a cancelled ctx) rolls it back.
func InTx(ctx context.Context, pool *Pool, iso pgx.TxIsoLevel, fn func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: iso})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
