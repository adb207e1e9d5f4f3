// Package dialect provides the database abstraction consumed by the record
// layer.
//
// This package defines the interfaces and constants used for
// database-specific behavior, allowing the record layer to target multiple
// backends with one code path.
//
// # Supported Dialects
//
// Each dialect is identified by a constant string:
//
//	dialect.MySQL    = "mysql"
//	dialect.Postgres = "postgres"
//	dialect.SQLite   = "sqlite"
//
// The dialect name decides placeholder style, schema introspection strategy,
// and constraint-error translation.
//
// # Driver Interface
//
// The Driver interface is the contract every connection implements:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// The Tx interface extends ExecQuerier with Commit and Rollback.
//
// # Usage
//
// Opening a connection:
//
//	import (
//	    "github.com/syssam/record/dialect"
//	    "github.com/syssam/record/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// The dialect/sql sub-package implements Driver on top of database/sql and
// adds optional statistics and debug-logging wrappers.
package dialect
