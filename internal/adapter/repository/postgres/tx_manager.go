package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/procureledger/internal/usecase"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txStarter interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Conflicts under this isolation surface as 40001 and are retried by Retrier.
var serializable = pgx.TxOptions{IsoLevel: pgx.Serializable}

// TxManager opens the serializable units of work every ledger, budget and
// approval mutation runs in.
type TxManager struct {
	db txStarter
}

func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return newTxManagerWithPool(pool)
}

func newTxManagerWithPool(db txStarter) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.db.BeginTx(ctx, serializable)
	if err != nil {
		return nil, fmt.Errorf("begin unit of work: %w", err)
	}
	return &unitOfWork{tx: tx}, nil
}

// unitOfWork makes Rollback a no-op once Commit has run so callers can defer it.
type unitOfWork struct {
	tx        pgx.Tx
	committed bool
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if err := u.tx.Commit(ctx); err != nil {
		return err
	}
	u.committed = true
	return nil
}

func (u *unitOfWork) Rollback(ctx context.Context) error {
	if u.committed {
		return nil
	}
	err := u.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// pgxTx unwraps a transaction opened by TxManager. Repositories only accept those.
func pgxTx(tx usecase.Transaction) pgx.Tx {
	u, ok := tx.(*unitOfWork)
	if !ok {
		panic(fmt.Sprintf("postgres: transaction %T was not opened by TxManager", tx))
	}
	return u.tx
}
