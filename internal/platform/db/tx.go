package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

// LedgerWriteIsolation is used by transactions that lock rows and then act on
// what they find. Each statement after a lock wait sees rows committed while
// waiting, so status checks and cache deletes run against current data.
const LedgerWriteIsolation = pgx.ReadCommitted

// Querier is the subset of pgx shared by pools and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// WithTx executes a function within a transaction using the RepeatableRead isolation level.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	return WithTxIsolation(ctx, pool, pgx.RepeatableRead, fn)
}

// WithTxIsolation executes fn within a transaction at the given isolation level.
func WithTxIsolation(ctx context.Context, pool *pgxpool.Pool, iso pgx.TxIsoLevel, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: iso})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return classifyTxError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return classifyTxError(fmt.Errorf("platform/db: commit tx: %w", err))
	}

	return nil
}

// classifyTxError reports serialization failures and deadlocks as state
// conflicts. The caller may retry the whole operation.
func classifyTxError(err error) error {
	if IsSerializationFailure(err) && !errors.Is(err, shared.ErrConflict) {
		return fmt.Errorf("platform/db: concurrent update: %w: %w", shared.ErrConflict, err)
	}
	return err
}

type txContextKey struct{}

// TxManager shares one transaction between repositories through the context,
// so a payment update and its journal posting commit together.
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager constructs a TxManager.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// WithinTx runs fn inside the transaction already bound to ctx, or opens a
// RepeatableRead transaction when there is none. Commit hooks registered by fn
// run only after the outermost commit.
func (m *TxManager) WithinTx(ctx context.Context, fn func(context.Context) error) error {
	return m.WithinTxIsolation(ctx, pgx.RepeatableRead, fn)
}

// WithinTxIsolation is WithinTx with an explicit isolation level for new transactions.
func (m *TxManager) WithinTxIsolation(ctx context.Context, iso pgx.TxIsoLevel, fn func(context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}
	ctx, hooks := WithCommitHooks(ctx)
	err := WithTxIsolation(ctx, m.pool, iso, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
	if err != nil {
		hooks.Discard()
		return err
	}
	hooks.Run(ctx)
	return nil
}

// Conn returns the transaction bound to ctx, falling back to the pool.
func (m *TxManager) Conn(ctx context.Context) Querier {
	if tx, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return tx
	}
	return m.pool
}

// Pool exposes the underlying pool.
func (m *TxManager) Pool() *pgxpool.Pool {
	return m.pool
}

// InTx reports whether ctx carries an open transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txContextKey{}).(pgx.Tx)
	return ok
}
