// Package sql implements the dialect.Driver interfaces on top of
// database/sql and provides the low-level statement builder used by the
// command package.
//
// # Drivers
//
// Open and OpenDB return a *Driver for one of the supported dialects. The
// PostgreSQL (lib/pq), MySQL (go-sql-driver/mysql) and SQLite
// (modernc.org/sqlite) drivers are registered by this package:
//
//	drv, err := sql.Open(dialect.Postgres, dsn)
//	if err != nil {
//		return err
//	}
//	conn, err := drv.Connect(ctx) // one dedicated connection
//
// # Builder
//
// Builder writes SQL text, quoting identifiers and numbering parameter
// markers according to a dialect.Dialect:
//
//	b := sql.NewBuilder(dialect.MustGet(dialect.Postgres))
//	b.WriteString("SELECT ").IdentComma("ID", "ClassID").
//		WriteString(" FROM ").Ident("Order").
//		WriteString(" WHERE ").Ident("ID").WriteString(" = ").Arg(id)
//	query, args := b.Query()
//	// SELECT "ID", "ClassID" FROM "Order" WHERE "ID" = $1;
//
// # Instrumentation
//
// StatsDriver counts statements and reports slow ones, DebugDriver logs
// every statement with log/slog. Both keep wrapping the connections and
// transactions they hand out.
//
// # Errors
//
// IsUniqueConstraintError, IsForeignKeyConstraintError and
// IsCheckConstraintError classify driver errors across dialects.
package sql
