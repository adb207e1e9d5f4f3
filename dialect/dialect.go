package dialect

import "context"

// Dialect names supported by this module.
const (
	// MySQL is the dialect name for MySQL/MariaDB databases.
	MySQL = "mysql"
	// Postgres is the dialect name for PostgreSQL databases.
	Postgres = "postgres"
	// SQLite is the dialect name for SQLite databases.
	SQLite = "sqlite"
)

// ExecQuerier wraps the two database operations the record layer performs.
type ExecQuerier interface {
	// Exec executes a statement that does not return rows. The args argument
	// is expected to be a []any of positional bind values, and v may be a
	// *sql.Result to receive the execution result, or nil to discard it.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a statement that returns rows. The args argument is
	// expected to be a []any of positional bind values, and v must be a
	// *Rows to receive the result set.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface every database connection used by the record
// layer implements.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx is the transaction interface returned by Driver.Tx.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}
