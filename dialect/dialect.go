package dialect

import (
	"context"
	"database/sql/driver"
	"fmt"
)

// Dialect names for supported databases.
const (
	MySQL     = "mysql"
	SQLite    = "sqlite"
	Postgres  = "postgres"
	SQLServer = "sqlserver"
)

// ExecQuerier wraps the 2 database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for the
// persistence layer.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	// The provided context is used until the transaction is committed or rolled back.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	driver.Tx
}

// Connector hands out drivers bound to a single dedicated connection.
// Closing such a driver releases the connection.
type Connector interface {
	Connect(context.Context) (Driver, error)
	Dialect() string
}

// Dialect is the narrow SQL dialect contract used when building commands.
type Dialect interface {
	// Name returns the dialect name, e.g. Postgres.
	Name() string
	// StatementDelimiter is appended to every statement; empty if the
	// dialect does not emit one.
	StatementDelimiter() string
	// DelimitIdentifier quotes an identifier. Dotted names are quoted per part.
	DelimitIdentifier(name string) string
	// Placeholder returns the parameter marker for the n-th (1-based) argument.
	Placeholder(n int) string
	// BatchSeparator is the separator between script batches. It is only
	// used by schema script generation.
	BatchSeparator() string
	// InList returns a predicate matching column against the structured
	// list parameter marked by param.
	InList(column, param string) string
	// EncodeList encodes values into the single structured list parameter
	// consumed by InList.
	EncodeList(values []any) (any, error)
	// RowVersionGenerated reports if the database maintains the Timestamp
	// column itself. Otherwise writers set it explicitly.
	RowVersionGenerated() bool
}

// Get returns the dialect with the given name.
func Get(name string) (Dialect, error) {
	switch name {
	case Postgres:
		return postgresDialect{}, nil
	case MySQL:
		return mysqlDialect{}, nil
	case SQLite:
		return sqliteDialect{}, nil
	case SQLServer:
		return sqlserverDialect{}, nil
	default:
		return nil, fmt.Errorf("dialect: unsupported dialect %q", name)
	}
}

// MustGet is like Get but panics if the dialect is unknown.
func MustGet(name string) Dialect {
	d, err := Get(name)
	if err != nil {
		panic(err)
	}
	return d
}
