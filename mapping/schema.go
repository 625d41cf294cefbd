package mapping

import "fmt"

// Schema is a registry of storage providers and class definitions.
type Schema struct {
	providers map[string]*StorageProviderDefinition
	classes   map[string]*ClassDefinition
}

// NewSchema returns a schema with the given providers registered.
func NewSchema(providers ...*StorageProviderDefinition) *Schema {
	s := &Schema{
		providers: make(map[string]*StorageProviderDefinition, len(providers)),
		classes:   make(map[string]*ClassDefinition),
	}
	for _, p := range providers {
		s.providers[p.ID] = p
	}
	return s
}

// AddClass registers class definitions. Adding a class whose provider is
// not registered, or whose ID is taken, is an error. So is a derived class
// declaring a key kind other than its base class's.
func (s *Schema) AddClass(cs ...*ClassDefinition) error {
	for _, c := range cs {
		if _, ok := s.providers[c.ProviderID]; !ok {
			return fmt.Errorf("mapping: class %q references unknown storage provider %q", c.ID, c.ProviderID)
		}
		if _, ok := s.classes[c.ID]; ok {
			return fmt.Errorf("mapping: duplicate class %q", c.ID)
		}
		if c.BaseClass != nil && c.Key != KeyDefault && c.Key != c.BaseClass.KeyKind() {
			return fmt.Errorf("mapping: class %q has %s keys but its base class %q has %s keys",
				c.ID, c.Key, c.BaseClass.ID, c.BaseClass.KeyKind())
		}
		if c.Entity == nil {
			c.Entity = &NullEntityDefinition{}
		}
		s.classes[c.ID] = c
	}
	return nil
}

// MustAddClass is like AddClass but panics on error.
func (s *Schema) MustAddClass(cs ...*ClassDefinition) {
	if err := s.AddClass(cs...); err != nil {
		panic(err)
	}
}

// Inherit links derived classes to base.
func Inherit(base *ClassDefinition, derived ...*ClassDefinition) {
	for _, d := range derived {
		d.BaseClass = base
		base.DerivedClasses = append(base.DerivedClasses, d)
	}
}

// Class returns the class with the given ID.
func (s *Schema) Class(id string) (*ClassDefinition, bool) {
	c, ok := s.classes[id]
	return c, ok
}

// Provider returns the storage provider with the given ID.
func (s *Schema) Provider(id string) (*StorageProviderDefinition, bool) {
	p, ok := s.providers[id]
	return p, ok
}

// ProviderOf returns the storage provider ID of the class with the given ID.
func (s *Schema) ProviderOf(classID string) (string, bool) {
	c, ok := s.classes[classID]
	if !ok {
		return "", false
	}
	return c.ProviderID, true
}
