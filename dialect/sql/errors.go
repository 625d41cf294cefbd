package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// sqlStateError is implemented by drivers exposing SQLSTATE codes, e.g. pgx.
type sqlStateError interface {
	SQLState() string
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// classify reports if err carries one of the given PostgreSQL SQLSTATE codes
// or MySQL error numbers, falling back to message matching for drivers
// without typed errors (SQLite, SQL Server).
func classify(err error, pgCode string, mysqlNums []uint16, messages ...string) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgCode {
		return true
	}
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == pgCode {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		for _, n := range mysqlNums {
			if myErr.Number == n {
				return true
			}
		}
	}
	return containsAny(err.Error(), messages...)
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool {
	return classify(err, pgUniqueViolation, []uint16{mysqlDuplicateEntry},
		"Error 1062",                  // MySQL (string fallback)
		"violates unique constraint",  // Postgres (string fallback)
		"UNIQUE constraint failed",    // SQLite
		"Violation of PRIMARY KEY",    // SQL Server
		"Cannot insert duplicate key", // SQL Server
	)
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	return classify(err, pgForeignKeyViolation, []uint16{mysqlForeignKeyParent, mysqlForeignKeyChild},
		"Error 1451",                      // MySQL (Cannot delete or update a parent row)
		"Error 1452",                      // MySQL (Cannot add or update a child row)
		"violates foreign key constraint", // Postgres
		"FOREIGN KEY constraint failed",   // SQLite
		"conflicted with the FOREIGN KEY", // SQL Server
		"conflicted with the REFERENCE",   // SQL Server
	)
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
// e.g. a value does not satisfy a check condition.
func IsCheckConstraintError(err error) bool {
	return classify(err, pgCheckViolation, []uint16{mysqlCheckConstraintViolate},
		"Error 3819",                // MySQL
		"violates check constraint", // Postgres
		"CHECK constraint failed",   // SQLite
		"conflicted with the CHECK", // SQL Server
	)
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
