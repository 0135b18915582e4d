package adapters

import (
	"context"
	"errors"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"physics-datasets/internal/ports"
)

// uniqueViolationCode is the Postgres SQLSTATE for unique_violation.
const uniqueViolationCode = "23505"

// PgxDatabaseAdapter implements the database port over a pgx connection
// pool.
type PgxDatabaseAdapter struct {
	pool *pgxpool.Pool
}

// NewPgxDatabase opens and pings a Postgres pool for the given DSN.
func NewPgxDatabase(ctx context.Context, dsn string) (*PgxDatabaseAdapter, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to open database pool").
			WithCause(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("database is not reachable").
			WithCause(err)
	}
	return &PgxDatabaseAdapter{pool: pool}, nil
}

func (a *PgxDatabaseAdapter) Acquire(ctx context.Context) (ports.Conn, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return pgxConn{conn: conn}, nil
}

func (a *PgxDatabaseAdapter) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func (a *PgxDatabaseAdapter) Close() {
	a.pool.Close()
}

type pgxConn struct {
	conn *pgxpool.Conn
}

func (c pgxConn) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := c.conn.Exec(ctx, sql, args...)
	return err
}

func (c pgxConn) Query(ctx context.Context, sql string, args ...any) (ports.Rows, error) {
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgxRows{rows: rows}, nil
}

func (c pgxConn) QueryRow(ctx context.Context, sql string, args ...any) ports.Row {
	return pgxRow{row: c.conn.QueryRow(ctx, sql, args...)}
}

func (c pgxConn) Begin(ctx context.Context) (ports.Tx, error) {
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return pgxTx{tx: tx}, nil
}

func (c pgxConn) Release() {
	c.conn.Release()
}

type pgxTx struct {
	tx pgx.Tx
}

func (t pgxTx) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := t.tx.Exec(ctx, sql, args...)
	return err
}

func (t pgxTx) Query(ctx context.Context, sql string, args ...any) (ports.Rows, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgxRows{rows: rows}, nil
}

func (t pgxTx) QueryRow(ctx context.Context, sql string, args ...any) ports.Row {
	return pgxRow{row: t.tx.QueryRow(ctx, sql, args...)}
}

func (t pgxTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t pgxTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

type pgxRow struct {
	row pgx.Row
}

func (r pgxRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return ports.ErrNoRows
	}
	return err
}

type pgxRows struct {
	rows pgx.Rows
}

func (r pgxRows) Next() bool             { return r.rows.Next() }
func (r pgxRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r pgxRows) Err() error             { return r.rows.Err() }
func (r pgxRows) Close()                 { r.rows.Close() }
