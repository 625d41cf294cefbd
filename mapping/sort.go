package mapping

// SortOrder is the direction of one sort key.
type SortOrder uint8

const (
	Ascending SortOrder = iota
	Descending
)

// String returns the SQL keyword for the order.
func (o SortOrder) String() string {
	if o == Descending {
		return "DESC"
	}
	return "ASC"
}

// SortedProperty is one key of a sort expression.
type SortedProperty struct {
	Property *PropertyDefinition
	Order    SortOrder
}

// SortExpression is an ordered list of sort keys. An empty expression is
// valid and means "database order".
type SortExpression []SortedProperty

// Asc returns an ascending sort key.
func Asc(p *PropertyDefinition) SortedProperty {
	return SortedProperty{Property: p, Order: Ascending}
}

// Desc returns a descending sort key.
func Desc(p *PropertyDefinition) SortedProperty {
	return SortedProperty{Property: p, Order: Descending}
}

// Columns returns the columns referenced by the expression, in order.
func (s SortExpression) Columns() []string {
	cols := make([]string, 0, len(s))
	for _, k := range s {
		cols = append(cols, k.Property.Column)
	}
	return cols
}
