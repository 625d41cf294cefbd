package command

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/syssam/rdbms"
	"github.com/syssam/rdbms/convert"
	"github.com/syssam/rdbms/dialect"
	"github.com/syssam/rdbms/dialect/sql"
	"github.com/syssam/rdbms/mapping"
)

// Statement is a rendered SQL statement with its arguments.
type Statement struct {
	Query  string
	Args   []any
	Intent string
	// Token is the concurrency token written by the statement, if any.
	Token any
}

// Builder renders specs for one storage provider.
type Builder struct {
	Dialect    dialect.Dialect
	Converter  *convert.ValueConverter
	ProviderID string
	// NewToken returns a fresh concurrency token for dialects that do not
	// maintain the Timestamp column themselves. Defaults to uuid.NewString.
	NewToken func() any
}

// NewBuilder returns a builder for the converter's provider.
func NewBuilder(d dialect.Dialect, conv *convert.ValueConverter) *Builder {
	return &Builder{Dialect: d, Converter: conv, ProviderID: conv.ProviderID()}
}

// Build renders s. A nil statement with a nil error means there is nothing
// to execute.
func (b *Builder) Build(s Spec) (*Statement, error) {
	switch s := s.(type) {
	case *SelectByID:
		return b.selectByID(s)
	case *SelectByIDs:
		return b.selectByIDs(s)
	case *SelectByRelation:
		return b.selectByRelation(s)
	case *UnionSelect:
		return b.unionSelect(s)
	case *Insert:
		return b.insert(s)
	case *Update:
		return b.update(s)
	case *Delete:
		return b.delete(s)
	case *Raw:
		return b.raw(s)
	case nil:
		return nil, rdbms.NewArgumentError("build", "nil spec")
	default:
		panic(fmt.Sprintf("command: unexpected spec %T", s))
	}
}

func (b *Builder) newToken() any {
	if b.NewToken != nil {
		return b.NewToken()
	}
	return uuid.NewString()
}

func (b *Builder) checkProvider(op string, id rdbms.ObjectID) error {
	if id.ProviderID != b.ProviderID {
		return &rdbms.ArgumentError{
			Op:  op,
			Msg: fmt.Sprintf("%s belongs to provider %q, not %q", id, id.ProviderID, b.ProviderID),
			Err: rdbms.ErrForeignProvider,
		}
	}
	return nil
}

func (b *Builder) selectFrom(entity string, columns []string) *sql.Builder {
	sb := sql.NewBuilder(b.Dialect).WriteString("SELECT ")
	if len(columns) == 0 {
		sb.WriteString("*")
	} else {
		sb.IdentComma(columns...)
	}
	return sb.WriteString(" FROM ").Ident(entity)
}

func (b *Builder) selectByID(s *SelectByID) (*Statement, error) {
	if err := b.checkProvider("select by id", s.ID); err != nil {
		return nil, err
	}
	sb := b.selectFrom(s.Entity, s.Columns).WriteString(" WHERE ")
	where(sb).eq(mapping.IDColumn, b.Converter.IDToStorage(s.ID))
	return statement(sb, "select "+s.ID.String()), nil
}

func (b *Builder) selectByIDs(s *SelectByIDs) (*Statement, error) {
	if len(s.IDs) == 0 {
		return nil, rdbms.NewArgumentError("select by ids", "no identities given")
	}
	values := make([]any, len(s.IDs))
	for i, id := range s.IDs {
		if err := b.checkProvider("select by ids", id); err != nil {
			return nil, err
		}
		values[i] = b.Converter.IDToStorage(id)
	}
	list, err := b.Dialect.EncodeList(values)
	if err != nil {
		return nil, rdbms.NewArgumentError("select by ids", "%v", err)
	}
	sb := b.selectFrom(s.Entity, s.Columns).WriteString(" WHERE ")
	where(sb).in(mapping.IDColumn, list)
	return statement(sb, fmt.Sprintf("select %d objects from %s", len(s.IDs), s.Entity)), nil
}

func (b *Builder) relationValue(op string, prop *mapping.PropertyDefinition, id rdbms.ObjectID) (any, error) {
	if prop == nil || !prop.IsObjectID() {
		return nil, rdbms.NewArgumentError(op, "property is not an object reference")
	}
	return b.Converter.ToStorage(id)
}

func (b *Builder) selectByRelation(s *SelectByRelation) (*Statement, error) {
	v, err := b.relationValue("select by relation", s.Property, s.RelatedID)
	if err != nil {
		return nil, err
	}
	sb := b.selectFrom(s.Entity, s.Columns).WriteString(" WHERE ")
	w := where(sb).eq(s.Property.Column, v)
	if len(s.ClassIDs) > 0 {
		w.and().classIDs(s.ClassIDs)
	}
	orderBy(sb, s.Sort)
	return statement(sb, fmt.Sprintf("select %s by %s", s.Entity, s.Property.Name)), nil
}

func (b *Builder) unionSelect(s *UnionSelect) (*Statement, error) {
	v, err := b.relationValue("union select", s.Property, s.RelatedID)
	if err != nil {
		return nil, err
	}
	if len(s.Tables) == 0 {
		return nil, nil
	}
	columns := append([]string{mapping.IDColumn, mapping.ClassIDColumn}, s.Sort.Columns()...)
	sb := sql.NewBuilder(b.Dialect)
	for i, t := range s.Tables {
		if i > 0 {
			sb.WriteString(" UNION ALL ")
		}
		sb.WriteString("SELECT ").IdentComma(columns...).
			WriteString(" FROM ").Ident(t.Name).
			WriteString(" WHERE ")
		w := where(sb).eq(s.Property.Column, v)
		if len(s.ClassIDs) > 0 {
			w.and().classIDs(s.ClassIDs)
		}
	}
	orderBy(sb, s.Sort)
	return statement(sb, fmt.Sprintf("union select by %s", s.Property.Name)), nil
}

// TableOf returns the table holding the rows of class. Filter views resolve
// to their base entity; union views and unmapped classes have no single
// table and yield an argument error for op.
func TableOf(op string, class *mapping.ClassDefinition) (string, error) {
	return mapping.Dispatch(class.Entity, mapping.Handlers[string]{
		Table: func(t *mapping.TableDefinition, _ mapping.Continuation[string]) (string, error) {
			return t.Name, nil
		},
		FilterView: func(f *mapping.FilterViewDefinition, cont mapping.Continuation[string]) (string, error) {
			return cont(f.Base)
		},
		UnionView: func(u *mapping.UnionViewDefinition, _ mapping.Continuation[string]) (string, error) {
			return "", rdbms.NewArgumentError(op, "class %q is stored in union view %q", class.ID, u.Name)
		},
		Null: func(*mapping.NullEntityDefinition, mapping.Continuation[string]) (string, error) {
			return "", rdbms.NewArgumentError(op, "class %q is not mapped to a table", class.ID)
		},
	})
}

func (b *Builder) writable(op string, dc *rdbms.DataContainer, states ...rdbms.State) (string, error) {
	if dc == nil {
		return "", rdbms.NewArgumentError(op, "nil container")
	}
	state := dc.State()
	valid := false
	for _, s := range states {
		valid = valid || s == state
	}
	if !valid {
		return "", rdbms.NewArgumentError(op, "container %s is %s", dc.ID(), state)
	}
	if err := b.checkProvider(op, dc.ID()); err != nil {
		return "", err
	}
	return TableOf(op, dc.Class())
}

func (b *Builder) insert(s *Insert) (*Statement, error) {
	table, err := b.writable("insert", s.Container, rdbms.StateNew)
	if err != nil {
		return nil, err
	}
	dc := s.Container
	columns := []string{mapping.IDColumn, mapping.ClassIDColumn}
	values := []any{b.Converter.IDToStorage(dc.ID()), dc.ID().ClassID}
	var token any
	if !b.Dialect.RowVersionGenerated() {
		token = b.newToken()
		columns = append(columns, mapping.TimestampColumn)
		values = append(values, token)
	}
	for _, pv := range dc.PropertyValues() {
		if !pv.IsPersistent() || pv.Definition().IsObjectID() {
			continue
		}
		v, err := b.Converter.ToStorage(pv.Value())
		if err != nil {
			return nil, err
		}
		columns = append(columns, pv.Definition().Column)
		values = append(values, v)
	}
	sb := sql.NewBuilder(b.Dialect).
		WriteString("INSERT INTO ").Ident(table).
		WriteString(" (").IdentComma(columns...).
		WriteString(") VALUES (").Args(values...).WriteString(")")
	st := statement(sb, "insert "+dc.ID().String())
	st.Token = token
	return st, nil
}

// assignment is one "column = value" pair of an UPDATE.
type assignment struct {
	column string
	value  any
	self   bool // column = column
}

func (b *Builder) update(s *Update) (*Statement, error) {
	table, err := b.writable("update", s.Container, rdbms.StateNew, rdbms.StateChanged, rdbms.StateDeleted)
	if err != nil {
		return nil, err
	}
	dc := s.Container
	state := dc.State()
	var set []assignment
	for _, pv := range dc.PropertyValues() {
		if !pv.IsPersistent() {
			continue
		}
		def := pv.Definition()
		switch {
		case def.IsObjectID() && state != rdbms.StateChanged:
		case state == rdbms.StateChanged && pv.HasChanged():
		default:
			continue
		}
		v, err := b.Converter.ToStorage(pv.Value())
		if err != nil {
			return nil, err
		}
		set = append(set, assignment{column: def.Column, value: v})
		if def.IsObjectID() && b.needsClassIDColumn(def) {
			set = append(set, assignment{column: def.ClassIDColumn(), value: classIDOf(pv.Value())})
		}
	}
	if len(set) == 0 {
		if state != rdbms.StateChanged || !dc.HasBeenMarkedChanged() {
			return nil, nil
		}
		set = append(set, assignment{column: mapping.ClassIDColumn, self: true})
	}
	var token any
	if !b.Dialect.RowVersionGenerated() {
		token = b.newToken()
		set = append(set, assignment{column: mapping.TimestampColumn, value: token})
	}
	sb := sql.NewBuilder(b.Dialect).WriteString("UPDATE ").Ident(table).WriteString(" SET ")
	for i, a := range set {
		if i > 0 {
			sb.Comma()
		}
		sb.Ident(a.column).WriteString(" = ")
		if a.self {
			sb.Ident(a.column)
		} else {
			sb.Arg(a.value)
		}
	}
	sb.WriteString(" WHERE ")
	w := where(sb).eq(mapping.IDColumn, b.Converter.IDToStorage(dc.ID()))
	if state != rdbms.StateNew {
		w.and().eq(mapping.TimestampColumn, dc.Token())
	}
	st := statement(sb, "update "+dc.ID().String())
	st.Token = token
	return st, nil
}

// needsClassIDColumn reports if a reference property is stored with a
// ClassID companion column.
func (b *Builder) needsClassIDColumn(p *mapping.PropertyDefinition) bool {
	r := p.RelatedClass
	return r != nil && r.ProviderID == b.ProviderID && r.IsPartOfInheritanceHierarchy()
}

func classIDOf(v any) any {
	switch id := v.(type) {
	case rdbms.ObjectID:
		if !id.IsZero() {
			return id.ClassID
		}
	case *rdbms.ObjectID:
		if id != nil && !id.IsZero() {
			return id.ClassID
		}
	}
	return nil
}

// delete omits the token check for containers holding references: those
// are versioned through the rows they point to.
func (b *Builder) delete(s *Delete) (*Statement, error) {
	table, err := b.writable("delete", s.Container, rdbms.StateDeleted)
	if err != nil {
		return nil, err
	}
	dc := s.Container
	sb := sql.NewBuilder(b.Dialect).WriteString("DELETE FROM ").Ident(table).WriteString(" WHERE ")
	w := where(sb).eq(mapping.IDColumn, b.Converter.IDToStorage(dc.ID()))
	if !dc.HasObjectIDProperties() {
		w.and().eq(mapping.TimestampColumn, dc.Token())
	}
	return statement(sb, "delete "+dc.ID().String()), nil
}

func statement(sb *sql.Builder, intent string) *Statement {
	query, args := sb.Query()
	return &Statement{Query: query, Args: args, Intent: intent}
}

func orderBy(sb *sql.Builder, sort mapping.SortExpression) {
	if len(sort) == 0 {
		return
	}
	sb.WriteString(" ORDER BY ")
	for i, k := range sort {
		if i > 0 {
			sb.Comma()
		}
		sb.Ident(k.Property.Column).Pad().WriteString(k.Order.String())
	}
}

// raw substitutes the named parameters of a query. Text parameters are
// written into the statement, value parameters become placeholders.
// Single quoted literals are copied unchanged.
func (b *Builder) raw(s *Raw) (*Statement, error) {
	q := s.Query
	if q == nil {
		return nil, rdbms.NewArgumentError("query", "nil query")
	}
	if q.ProviderID != b.ProviderID {
		return nil, &rdbms.ArgumentError{
			Op:  "query",
			Msg: fmt.Sprintf("query %q belongs to provider %q, not %q", q.ID, q.ProviderID, b.ProviderID),
			Err: rdbms.ErrForeignProvider,
		}
	}
	// Longest names first, so "@id" never matches the head of "@idList".
	params := slices.Clone(q.Parameters)
	slices.SortStableFunc(params, func(a, b rdbms.QueryParameter) int {
		return cmp.Compare(len(b.Name), len(a.Name))
	})
	sb := sql.NewBuilder(b.Dialect)
	text := q.Statement
	for i := 0; i < len(text); {
		if text[i] == '\'' {
			end := literalEnd(text, i)
			sb.WriteString(text[i:end])
			i = end
			continue
		}
		p, ok := matchParam(text[i:], params)
		if !ok {
			sb.WriteString(text[i : i+1])
			i++
			continue
		}
		switch p.Kind {
		case rdbms.ParameterText:
			sb.WriteString(fmt.Sprint(p.Value))
		default:
			v, err := b.Converter.ToStorage(p.Value)
			if err != nil {
				return nil, err
			}
			sb.Arg(v)
		}
		i += len(p.Name)
	}
	_, args := sb.Query()
	return &Statement{Query: sb.String(), Args: args, Intent: "query " + q.ID}, nil
}

func matchParam(s string, params []rdbms.QueryParameter) (rdbms.QueryParameter, bool) {
	for _, p := range params {
		if p.Name == "" || !strings.HasPrefix(s, p.Name) {
			continue
		}
		if len(s) > len(p.Name) && isIdentByte(s[len(p.Name)]) {
			continue
		}
		return p, true
	}
	return rdbms.QueryParameter{}, false
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// literalEnd returns the index after the single quoted literal starting at
// i. Doubled quotes inside the literal are escapes.
func literalEnd(s string, i int) int {
	for j := i + 1; j < len(s); j++ {
		if s[j] != '\'' {
			continue
		}
		if j+1 < len(s) && s[j+1] == '\'' {
			j++
			continue
		}
		return j + 1
	}
	return len(s)
}
