package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/iho/procureledger/internal/usecase"
)

func TestTxManagerUnitOfWork(t *testing.T) {
	errBegin := errors.New("too many connections")
	errCommit := errors.New("could not serialize access")

	tests := []struct {
		name      string
		expect    func(pool pgxmock.PgxPoolIface)
		finish    func(ctx context.Context, tx usecase.Transaction) error
		wantBegin error
		wantEnd   error
	}{
		{
			name: "commit",
			expect: func(pool pgxmock.PgxPoolIface) {
				pool.ExpectBeginTx(serializable)
				pool.ExpectCommit()
			},
			finish: func(ctx context.Context, tx usecase.Transaction) error {
				return tx.Commit(ctx)
			},
		},
		{
			name: "rollback",
			expect: func(pool pgxmock.PgxPoolIface) {
				pool.ExpectBeginTx(serializable)
				pool.ExpectRollback()
			},
			finish: func(ctx context.Context, tx usecase.Transaction) error {
				return tx.Rollback(ctx)
			},
		},
		{
			name: "commit conflict surfaces unchanged",
			expect: func(pool pgxmock.PgxPoolIface) {
				pool.ExpectBeginTx(serializable)
				pool.ExpectCommit().WillReturnError(errCommit)
			},
			finish: func(ctx context.Context, tx usecase.Transaction) error {
				return tx.Commit(ctx)
			},
			wantEnd: errCommit,
		},
		{
			name: "begin failure",
			expect: func(pool pgxmock.PgxPoolIface) {
				pool.ExpectBeginTx(serializable).WillReturnError(errBegin)
			},
			wantBegin: errBegin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := newMockPool(t)
			tt.expect(pool)
			ctx := context.Background()

			tx, err := newTxManagerWithPool(pool).Begin(ctx)
			if tt.wantBegin == nil && err != nil || tt.wantBegin != nil && !errors.Is(err, tt.wantBegin) {
				t.Fatalf("begin err = %v, want %v", err, tt.wantBegin)
			}
			if tt.wantBegin != nil {
				return
			}

			if err := tt.finish(ctx, tx); !errors.Is(err, tt.wantEnd) {
				t.Fatalf("finish err = %v, want %v", err, tt.wantEnd)
			}
			assertExpectations(t, pool)
		})
	}
}

func TestUnitOfWorkRollbackAfterCommitIsNoop(t *testing.T) {
	pool := newMockPool(t)
	tx := beginMockTx(t, pool)
	pool.ExpectCommit()

	ctx := context.Background()
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback after commit: %v", err)
	}
	assertExpectations(t, pool)
}

func TestPgxTxUnwrap(t *testing.T) {
	if serializable.IsoLevel != pgx.Serializable {
		t.Fatalf("isolation = %s, want serializable", serializable.IsoLevel)
	}

	pool := newMockPool(t)
	if pgxTx(beginMockTx(t, pool)) == nil {
		t.Fatal("expected the underlying pgx transaction")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for a foreign transaction")
		}
	}()
	pgxTx(foreignTx{})
}

type foreignTx struct{}

func (foreignTx) Commit(context.Context) error   { return nil }
func (foreignTx) Rollback(context.Context) error { return nil }
