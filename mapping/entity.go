package mapping

import "fmt"

// EntityDefinition is the storage shape of a class. The set of
// implementations is closed: TableDefinition, FilterViewDefinition,
// UnionViewDefinition and NullEntityDefinition.
type EntityDefinition interface {
	// EntityName returns the name used in FROM clauses, or "" for
	// entities without storage.
	EntityName() string
	entity()
}

// TableDefinition maps to one physical table.
type TableDefinition struct {
	Name string
}

// FilterViewDefinition narrows a base entity to a set of class IDs.
type FilterViewDefinition struct {
	Name     string
	Base     EntityDefinition
	ClassIDs []string
}

// UnionViewDefinition is the union of several concrete tables.
type UnionViewDefinition struct {
	Name   string
	Tables []*TableDefinition
}

// NullEntityDefinition marks an unmapped class. It is never queried.
type NullEntityDefinition struct{}

func (t *TableDefinition) EntityName() string { return t.Name }
func (f *FilterViewDefinition) EntityName() string { return f.Name }
func (u *UnionViewDefinition) EntityName() string { return u.Name }
func (*NullEntityDefinition) EntityName() string { return "" }
func (*TableDefinition) entity() {}
func (*FilterViewDefinition) entity() {}
func (*UnionViewDefinition) entity() {}
func (*NullEntityDefinition) entity() {}

// Continuation re-enters the dispatcher for a referenced entity.
type Continuation[T any] func(EntityDefinition) (T, error)

// Handlers holds one callback per entity variant.
type Handlers[T any] struct {
	Table      func(*TableDefinition, Continuation[T]) (T, error)
	FilterView func(*FilterViewDefinition, Continuation[T]) (T, error)
	UnionView  func(*UnionViewDefinition, Continuation[T]) (T, error)
	Null       func(*NullEntityDefinition, Continuation[T]) (T, error)
}

// Dispatch calls the handler matching the variant of e. Each handler gets a
// continuation that dispatches a referenced entity with the same handlers,
// which lets a filter view delegate to its base entity.
func Dispatch[T any](e EntityDefinition, h Handlers[T]) (T, error) {
	var (
		zero T
		cont Continuation[T]
	)
	cont = func(e EntityDefinition) (T, error) {
		switch e := e.(type) {
		case *TableDefinition:
			if h.Table == nil {
				return zero, missingHandler(e)
			}
			return h.Table(e, cont)
		case *FilterViewDefinition:
			if h.FilterView == nil {
				return zero, missingHandler(e)
			}
			return h.FilterView(e, cont)
		case *UnionViewDefinition:
			if h.UnionView == nil {
				return zero, missingHandler(e)
			}
			return h.UnionView(e, cont)
		case *NullEntityDefinition:
			if h.Null == nil {
				return zero, missingHandler(e)
			}
			return h.Null(e, cont)
		case nil:
			return zero, fmt.Errorf("mapping: nil entity definition")
		default:
			panic(fmt.Sprintf("mapping: unexpected entity definition %T", e))
		}
	}
	return cont(e)
}

// HandlerError is returned by Dispatch when no handler is registered for the
// entity variant reached.
type HandlerError struct {
	Entity EntityDefinition
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("mapping: no handler for entity %T %q", e.Entity, e.Entity.EntityName())
}

func missingHandler(e EntityDefinition) error {
	return &HandlerError{Entity: e}
}
