package sql

import (
	"strings"

	"github.com/syssam/rdbms/dialect"
)

// Builder is a low-level SQL string builder. It quotes identifiers and
// numbers parameter markers according to its dialect and collects the
// bound arguments.
type Builder struct {
	sb      strings.Builder
	args    []any
	dialect dialect.Dialect
}

// NewBuilder returns a builder for the given dialect.
func NewBuilder(d dialect.Dialect) *Builder {
	return &Builder{dialect: d}
}

// Dialect returns the dialect of the builder.
func (b *Builder) Dialect() dialect.Dialect { return b.dialect }

// WriteString appends raw SQL.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// Pad appends a single space.
func (b *Builder) Pad() *Builder {
	b.sb.WriteByte(' ')
	return b
}

// Comma appends ", ".
func (b *Builder) Comma() *Builder {
	b.sb.WriteString(", ")
	return b
}

// Ident appends a delimited identifier.
func (b *Builder) Ident(name string) *Builder {
	b.sb.WriteString(b.dialect.DelimitIdentifier(name))
	return b
}

// IdentComma appends delimited identifiers separated by commas.
func (b *Builder) IdentComma(names ...string) *Builder {
	for i, n := range names {
		if i > 0 {
			b.Comma()
		}
		b.Ident(n)
	}
	return b
}

// Quote returns the delimited identifier without writing it.
func (b *Builder) Quote(name string) string {
	return b.dialect.DelimitIdentifier(name)
}

// Arg binds v and appends its parameter marker.
func (b *Builder) Arg(v any) *Builder {
	b.sb.WriteString(b.NextPlaceholder(v))
	return b
}

// Args binds vs and appends their markers separated by commas.
func (b *Builder) Args(vs ...any) *Builder {
	for i, v := range vs {
		if i > 0 {
			b.Comma()
		}
		b.Arg(v)
	}
	return b
}

// NextPlaceholder binds v and returns its marker without writing it.
func (b *Builder) NextPlaceholder(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

// Len returns the length of the SQL written so far.
func (b *Builder) Len() int { return b.sb.Len() }

// Query returns the statement with the dialect's statement delimiter and
// the bound arguments.
func (b *Builder) Query() (string, []any) {
	return b.sb.String() + b.dialect.StatementDelimiter(), b.args
}

// String returns the SQL written so far.
func (b *Builder) String() string { return b.sb.String() }
