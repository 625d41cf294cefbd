// Package dialect provides the database dialect abstraction used by the
// persistence layer.
//
// It defines two contracts:
//
//   - Driver, Tx and Connector: the narrow execution contract. The
//     provider never talks to a database directly, only through these.
//   - Dialect: the SQL dialect contract used when rendering commands
//     (identifier quoting, parameter markers, statement delimiter and the
//     structured IN-list parameter).
//
// # Supported Dialects
//
//	dialect.Postgres  = "postgres"
//	dialect.MySQL     = "mysql"
//	dialect.SQLite    = "sqlite"
//	dialect.SQLServer = "sqlserver"
//
// # Structured IN Lists
//
// Lookups of many identities pass the whole list as one parameter to stay
// clear of driver parameter-count limits:
//
//	PostgreSQL  "ID" = ANY($1)                                  pq.Array
//	MySQL       `ID` IN (SELECT `v` FROM JSON_TABLE(?, ...))    JSON array
//	SQLite      "ID" IN (SELECT value FROM json_each(?))        JSON array
//	SQL Server  [ID] IN (SELECT ... CAST(@p1 AS xml) ... nodes) XML list
//
// # Usage
//
//	d, err := dialect.Get(dialect.Postgres)
//	if err != nil {
//	    return err
//	}
//	d.DelimitIdentifier("dbo.Order") // "dbo"."Order"
//	d.Placeholder(2)                 // $2
//
// # Sub-packages
//
//   - dialect/sql: database/sql backed Driver, statement Builder and
//     driver error classification.
package dialect
