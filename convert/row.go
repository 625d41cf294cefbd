package convert

import (
	"strings"

	"github.com/syssam/rdbms"
)

// Row is one result row as seen by the converter. Column lookups report
// absence through ok instead of failing.
type Row interface {
	// Ordinal returns the position of column in the row.
	Ordinal(column string) (int, bool)
	// Value returns the raw driver value at position i.
	Value(i int) any
	// Entity names the entity the row was read from, for error messages.
	Entity() string
}

// Record is a Row over scanned driver values.
type Record struct {
	entity  string
	columns []string
	values  []any
}

// NewRecord returns a Row for values scanned from the given columns.
func NewRecord(entity string, columns []string, values []any) *Record {
	return &Record{entity: entity, columns: columns, values: values}
}

// Ordinal matches column exactly first and falls back to a case
// insensitive match, since some drivers fold unquoted column names.
func (r *Record) Ordinal(column string) (int, bool) {
	for i, c := range r.columns {
		if c == column {
			return i, true
		}
	}
	for i, c := range r.columns {
		if strings.EqualFold(c, column) {
			return i, true
		}
	}
	return -1, false
}

// Value returns the value at position i.
func (r *Record) Value(i int) any { return r.values[i] }

// Columns returns the column names.
func (r *Record) Columns() []string { return r.columns }

// Entity returns the entity name.
func (r *Record) Entity() string { return r.entity }

// Reset points the record at the next row's values.
func (r *Record) Reset(values []any) { r.values = values }

// MandatoryOrdinal returns the position of a column that must be present.
func MandatoryOrdinal(row Row, column string) (int, error) {
	i, ok := row.Ordinal(column)
	if !ok {
		return -1, rdbms.NewMissingColumnError(row.Entity(), column)
	}
	return i, nil
}
