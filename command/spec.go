package command

import (
	"github.com/syssam/rdbms"
	"github.com/syssam/rdbms/mapping"
)

// Spec describes one statement to build. The set of specs is closed; see
// Builder.Build.
type Spec interface {
	spec()
}

// SelectByID selects the row of one identity.
type SelectByID struct {
	Entity  string
	Columns []string // nil selects all columns
	ID      rdbms.ObjectID
}

// SelectByIDs selects the rows of several identities. The identities are
// bound as one structured list parameter.
type SelectByIDs struct {
	Entity  string
	Columns []string
	IDs     []rdbms.ObjectID
}

// SelectByRelation selects the rows of Entity whose reference column for
// Property holds RelatedID. ClassIDs narrows the rows to the given classes
// when the entity is reached through a filter view.
type SelectByRelation struct {
	Entity    string
	Columns   []string
	Property  *mapping.PropertyDefinition
	RelatedID rdbms.ObjectID
	ClassIDs  []string
	Sort      mapping.SortExpression
}

// UnionSelect selects the identities of all rows referencing RelatedID
// across the concrete tables of a union view, ordered by Sort as a whole.
type UnionSelect struct {
	Tables    []*mapping.TableDefinition
	Property  *mapping.PropertyDefinition
	RelatedID rdbms.ObjectID
	ClassIDs  []string
	Sort      mapping.SortExpression
}

// Insert writes the row of a New container.
type Insert struct {
	Container *rdbms.DataContainer
}

// Update writes the changed columns of a container.
type Update struct {
	Container *rdbms.DataContainer
}

// Delete removes the row of a Deleted container.
type Delete struct {
	Container *rdbms.DataContainer
}

// Raw runs a caller-written query.
type Raw struct {
	Query *rdbms.Query
}

func (*SelectByID) spec()       {}
func (*SelectByIDs) spec()      {}
func (*SelectByRelation) spec() {}
func (*UnionSelect) spec()      {}
func (*Insert) spec()           {}
func (*Update) spec()           {}
func (*Delete) spec()           {}
func (*Raw) spec()              {}

// SetColumns sets the selected columns of a select spec. Other specs have
// a fixed column set and reject it.
func SetColumns(s Spec, columns ...string) error {
	switch s := s.(type) {
	case *SelectByID:
		s.Columns = columns
	case *SelectByIDs:
		s.Columns = columns
	case *SelectByRelation:
		s.Columns = columns
	case *Raw:
		return rdbms.NewArgumentError("set columns", "raw query %q does not support column selection", s.Query.ID)
	default:
		return rdbms.NewArgumentError("set columns", "%T has a fixed column set", s)
	}
	return nil
}
