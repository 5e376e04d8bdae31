package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tx is the transaction-scoped data handle passed to guarded operations.
// It is only ever handed out inside WithAudit/WithAuditAndCapture, so a
// write that compiles against Tx cannot run outside a guarded transaction.
type Tx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxControl extends Tx with the lifecycle calls the guard keeps to itself.
// pgx.Tx satisfies it directly.
type TxControl interface {
	Tx
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Conn is a single pooled connection, exclusively owned by one guard call
// for its full duration.
type Conn interface {
	Begin(ctx context.Context) (TxControl, error)
	Release()
}

// Pool is the guard's view of the connection pool. The embedded Tx methods
// issue single statements outside any transaction; only the bootstrap
// insert uses them.
type Pool interface {
	Tx
	Acquire(ctx context.Context) (Conn, error)
}

type pgxPool struct {
	pool *pgxpool.Pool
}

// NewPool adapts a pgxpool.Pool to the guard's Pool interface.
func NewPool(pool *pgxpool.Pool) Pool {
	return &pgxPool{pool: pool}
}

func (p *pgxPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

func (p *pgxPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}

func (p *pgxPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

func (p *pgxPool) Acquire(ctx context.Context) (Conn, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &pgxConn{conn: conn}, nil
}

type pgxConn struct {
	conn *pgxpool.Conn
}

func (c *pgxConn) Begin(ctx context.Context) (TxControl, error) {
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

func (c *pgxConn) Release() {
	c.conn.Release()
}
