package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fulfillment/internal/domain/repository"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxManager implements repository.UnitOfWork on a pgx pool.
type TxManager struct {
	pool *pgxpool.Pool
}

var _ repository.UnitOfWork = (*TxManager)(nil)

func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// WithinTx begins a transaction, runs fn and commits when fn returns nil.
// The transaction is rolled back on error or panic and the connection goes
// back to the pool on every path.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, s repository.Store) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return repository.NewPersistenceError("begin transaction", err)
	}
	// Rollback after a successful commit is a no-op.
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(ctx, &store{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return repository.NewPersistenceError("commit transaction", err)
	}
	return nil
}

func (m *TxManager) Store() repository.Store {
	return &store{q: m.pool}
}

type store struct {
	q querier
}

func (s *store) Products() repository.ProductRepository { return &ProductRepository{q: s.q} }
func (s *store) Orders() repository.OrderRepository     { return &OrderRepository{q: s.q} }
func (s *store) Carts() repository.CartRepository       { return &CartRepository{q: s.q} }
