package ports

import (
	"context"
	"errors"
)

// ErrNoRows is returned by Row.Scan when a query matched nothing.
// Adapters translate their driver's equivalent so callers only ever
// compare against this sentinel.
var ErrNoRows = errors.New("no rows in result set")

// Row is a single-row query result.
type Row interface {
	Scan(dest ...any) error
}

// Rows is a multi-row query result. Close is idempotent and must be called
// once iteration ends.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Querier executes parameterized statements. Both live connections and
// open transactions satisfy it, so the import core never needs to know
// which one it is writing through.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// Tx is an open database transaction. Rollback after Commit is a no-op so
// deferred rollbacks stay safe.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Conn is an acquired connection. Release returns it to the pool.
type Conn interface {
	Querier
	Begin(ctx context.Context) (Tx, error)
	Release()
}

// DatabasePort provides connections and classifies driver errors the
// import engine must react to. The only condition the engine distinguishes
// is the unique-constraint violation raised by concurrent creators of the
// same reference entity.
type DatabasePort interface {
	Acquire(ctx context.Context) (Conn, error)
	IsUniqueViolation(err error) bool
	Close()
}
