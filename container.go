package rdbms

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/syssam/rdbms/mapping"
)

// State is the lifecycle state of a DataContainer.
type State uint8

// List of container states.
const (
	StateNew State = iota
	StateUnchanged
	StateChanged
	StateDeleted
	StateDiscarded
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateNew:
		return "New"
	case StateUnchanged:
		return "Unchanged"
	case StateChanged:
		return "Changed"
	case StateDeleted:
		return "Deleted"
	case StateDiscarded:
		return "Discarded"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// PropertyValue is the value of one property inside a DataContainer.
type PropertyValue struct {
	def      *mapping.PropertyDefinition
	original any
	value    any
}

// Definition returns the property definition.
func (v *PropertyValue) Definition() *mapping.PropertyDefinition { return v.def }

// Name returns the property name.
func (v *PropertyValue) Name() string { return v.def.Name }

// Value returns the current value.
func (v *PropertyValue) Value() any { return v.value }

// OriginalValue returns the value the container was loaded or created with.
func (v *PropertyValue) OriginalValue() any { return v.original }

// IsPersistent reports if the value is stored in a column.
func (v *PropertyValue) IsPersistent() bool {
	return v.def.StorageClass == mapping.StoragePersistent
}

// HasChanged reports if the current value differs from the original one.
func (v *PropertyValue) HasChanged() bool {
	return !valueEqual(v.original, v.value)
}

func valueEqual(a, b any) bool {
	if ab, ok := a.([]byte); ok {
		bb, ok := b.([]byte)
		return ok && bytes.Equal(ab, bb)
	}
	return reflect.DeepEqual(a, b)
}

// TokenEqual compares two concurrency tokens. Tokens are opaque and only
// compared for equality.
func TokenEqual(a, b any) bool {
	return valueEqual(a, b)
}

// DataContainer holds the persistent state of one object.
type DataContainer struct {
	id     ObjectID
	class  *mapping.ClassDefinition
	token  any
	values []*PropertyValue
	index  map[string]int

	state        State // New, Unchanged, Deleted or Discarded; Changed is derived
	markedChange bool
}

// NewDataContainer returns a container in state New. All property values
// start as nil.
func NewDataContainer(id ObjectID, class *mapping.ClassDefinition) *DataContainer {
	dc := newContainer(id, class)
	dc.state = StateNew
	return dc
}

// LoadedDataContainer returns a container for an existing row in state
// Unchanged. values is keyed by property name; missing properties are nil.
func LoadedDataContainer(id ObjectID, class *mapping.ClassDefinition, token any, values map[string]any) *DataContainer {
	dc := newContainer(id, class)
	dc.state = StateUnchanged
	dc.token = token
	for _, v := range dc.values {
		v.original = values[v.def.Name]
		v.value = v.original
	}
	return dc
}

func newContainer(id ObjectID, class *mapping.ClassDefinition) *DataContainer {
	props := class.AllProperties()
	dc := &DataContainer{
		id:     id,
		class:  class,
		values: make([]*PropertyValue, len(props)),
		index:  make(map[string]int, len(props)),
	}
	for i, p := range props {
		dc.values[i] = &PropertyValue{def: p}
		dc.index[p.Name] = i
	}
	return dc
}

// ID returns the identity of the container.
func (dc *DataContainer) ID() ObjectID { return dc.id }

// Class returns the class definition of the container.
func (dc *DataContainer) Class() *mapping.ClassDefinition { return dc.class }

// Token returns the concurrency token.
func (dc *DataContainer) Token() any { return dc.token }

// SetToken replaces the concurrency token, typically after a save.
func (dc *DataContainer) SetToken(token any) { dc.token = token }

// State returns the lifecycle state.
func (dc *DataContainer) State() State {
	if dc.state != StateUnchanged {
		return dc.state
	}
	if dc.markedChange {
		return StateChanged
	}
	for _, v := range dc.values {
		if v.HasChanged() {
			return StateChanged
		}
	}
	return StateUnchanged
}

// PropertyValues returns the property values in declaration order.
func (dc *DataContainer) PropertyValues() []*PropertyValue { return dc.values }

// PropertyValue returns the value holder of the named property.
func (dc *DataContainer) PropertyValue(name string) (*PropertyValue, bool) {
	i, ok := dc.index[name]
	if !ok {
		return nil, false
	}
	return dc.values[i], true
}

// Value returns the current value of the named property.
func (dc *DataContainer) Value(name string) any {
	if v, ok := dc.PropertyValue(name); ok {
		return v.value
	}
	return nil
}

// SetValue sets the current value of the named property.
func (dc *DataContainer) SetValue(name string, value any) error {
	v, ok := dc.PropertyValue(name)
	if !ok {
		return NewArgumentError("set value", "class %q has no property %q", dc.class.ID, name)
	}
	if dc.state == StateDiscarded {
		return NewArgumentError("set value", "container %s is discarded", dc.id)
	}
	v.value = value
	return nil
}

// HasObjectIDProperties reports if the container holds at least one
// ObjectID-valued persistent property.
func (dc *DataContainer) HasObjectIDProperties() bool {
	for _, v := range dc.values {
		if v.IsPersistent() && v.def.IsObjectID() {
			return true
		}
	}
	return false
}

// MarkChanged forces an Unchanged container to be saved as Changed.
func (dc *DataContainer) MarkChanged() error {
	if dc.state != StateUnchanged {
		return NewArgumentError("mark changed", "only unchanged containers can be marked, %s is %s", dc.id, dc.State())
	}
	dc.markedChange = true
	return nil
}

// HasBeenMarkedChanged reports if MarkChanged was called since the last
// commit.
func (dc *DataContainer) HasBeenMarkedChanged() bool { return dc.markedChange }

// Delete moves the container to state Deleted. A New container is
// discarded instead, since it has no row.
func (dc *DataContainer) Delete() {
	switch dc.state {
	case StateNew:
		dc.state = StateDiscarded
	case StateUnchanged:
		dc.state = StateDeleted
	}
}

// Commit accepts the current values after a successful save: New and
// Changed containers become Unchanged, Deleted containers are discarded.
func (dc *DataContainer) Commit() {
	switch dc.state {
	case StateDeleted:
		dc.state = StateDiscarded
		return
	case StateDiscarded:
		return
	}
	for _, v := range dc.values {
		v.original = v.value
	}
	dc.state = StateUnchanged
	dc.markedChange = false
}

// Discard moves the container to the terminal state Discarded.
func (dc *DataContainer) Discard() { dc.state = StateDiscarded }
