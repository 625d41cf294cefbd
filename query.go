package rdbms

// QueryType tells what a query returns.
type QueryType uint8

const (
	// CollectionQuery returns rows that are read into data containers.
	CollectionQuery QueryType = iota
	// ScalarQuery returns a single value.
	ScalarQuery
)

// ParameterKind tells how a query parameter is applied to the statement.
type ParameterKind uint8

const (
	// ParameterValue parameters are bound as driver parameters.
	ParameterValue ParameterKind = iota
	// ParameterText parameters are substituted into the statement text.
	// Only use them for trusted fragments such as column lists.
	ParameterText
)

// QueryParameter is one named parameter of a Query.
type QueryParameter struct {
	Name  string
	Value any
	Kind  ParameterKind
}

// Query is a caller-written SQL statement executed through a provider.
// Parameters are referenced by name in Statement, e.g. "@customer".
type Query struct {
	ID         string
	ProviderID string
	Statement  string
	Type       QueryType
	Parameters []QueryParameter
}

// NewQuery returns a collection query.
func NewQuery(id, providerID, statement string, params ...QueryParameter) *Query {
	return &Query{ID: id, ProviderID: providerID, Statement: statement, Type: CollectionQuery, Parameters: params}
}

// NewScalarQuery returns a scalar query.
func NewScalarQuery(id, providerID, statement string, params ...QueryParameter) *Query {
	q := NewQuery(id, providerID, statement, params...)
	q.Type = ScalarQuery
	return q
}

// Param returns a bound query parameter.
func Param(name string, value any) QueryParameter {
	return QueryParameter{Name: name, Value: value, Kind: ParameterValue}
}

// TextParam returns a textual query parameter.
func TextParam(name, text string) QueryParameter {
	return QueryParameter{Name: name, Value: text, Kind: ParameterText}
}
