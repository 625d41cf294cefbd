package command

import (
	"github.com/syssam/rdbms/dialect/sql"
	"github.com/syssam/rdbms/mapping"
)

// whereBuilder writes the predicates of a WHERE clause.
type whereBuilder struct {
	sb *sql.Builder
}

func where(sb *sql.Builder) *whereBuilder {
	return &whereBuilder{sb: sb}
}

// eq writes "column = ?". A nil value is written as "column IS NULL".
func (w *whereBuilder) eq(column string, v any) *whereBuilder {
	w.sb.Ident(column)
	if v == nil {
		w.sb.WriteString(" IS NULL")
		return w
	}
	w.sb.WriteString(" = ").Arg(v)
	return w
}

// in matches column against a list parameter encoded by the dialect.
func (w *whereBuilder) in(column string, list any) *whereBuilder {
	w.sb.WriteString(w.sb.Dialect().InList(w.sb.Quote(column), w.sb.NextPlaceholder(list)))
	return w
}

// classIDs writes "ClassID IN (?, ...)" with one parameter per class.
func (w *whereBuilder) classIDs(ids []string) *whereBuilder {
	w.sb.Ident(mapping.ClassIDColumn).WriteString(" IN (")
	for i, id := range ids {
		if i > 0 {
			w.sb.Comma()
		}
		w.sb.Arg(id)
	}
	w.sb.WriteString(")")
	return w
}

func (w *whereBuilder) and() *whereBuilder {
	w.sb.WriteString(" AND ")
	return w
}
