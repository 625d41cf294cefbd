package mapping

// StorageProviderDefinition describes one storage provider.
type StorageProviderDefinition struct {
	ID      string
	Dialect string
}

// ClassDefinition describes a persistent class and where it is stored.
type ClassDefinition struct {
	ID         string
	ProviderID string
	Abstract   bool
	Entity     EntityDefinition

	// Key is the kind of the identity values. Classes of one hierarchy
	// share it; derived classes usually leave it at KeyDefault.
	Key KeyKind

	BaseClass      *ClassDefinition
	DerivedClasses []*ClassDefinition

	properties []*PropertyDefinition
	byName     map[string]*PropertyDefinition
}

// AddProperty declares p on the class. The property's Class is set to c.
func (c *ClassDefinition) AddProperty(p *PropertyDefinition) *ClassDefinition {
	if c.byName == nil {
		c.byName = make(map[string]*PropertyDefinition)
	}
	p.Class = c
	c.properties = append(c.properties, p)
	c.byName[p.Name] = p
	return c
}

// KeyKind returns the kind of the class's identity values, resolving
// KeyDefault through the base classes.
func (c *ClassDefinition) KeyKind() KeyKind {
	for cl := c; cl != nil; cl = cl.BaseClass {
		if cl.Key != KeyDefault {
			return cl.Key
		}
	}
	return KeyUUID
}

// IsPartOfInheritanceHierarchy reports if the class has a base class or
// derived classes.
func (c *ClassDefinition) IsPartOfInheritanceHierarchy() bool {
	return c.BaseClass != nil || len(c.DerivedClasses) > 0
}

// DeclaredProperties returns the properties declared on the class itself.
func (c *ClassDefinition) DeclaredProperties() []*PropertyDefinition {
	return c.properties
}

// AllProperties returns the properties of the class including the inherited
// ones, base class properties first.
func (c *ClassDefinition) AllProperties() []*PropertyDefinition {
	if c.BaseClass == nil {
		return c.properties
	}
	inherited := c.BaseClass.AllProperties()
	all := make([]*PropertyDefinition, 0, len(inherited)+len(c.properties))
	all = append(all, inherited...)
	return append(all, c.properties...)
}

// PersistentProperties returns all properties backed by a column.
func (c *ClassDefinition) PersistentProperties() []*PropertyDefinition {
	var ps []*PropertyDefinition
	for _, p := range c.AllProperties() {
		if p.StorageClass == StoragePersistent {
			ps = append(ps, p)
		}
	}
	return ps
}

// Property looks up a property by name, walking up the base classes.
func (c *ClassDefinition) Property(name string) (*PropertyDefinition, bool) {
	for cur := c; cur != nil; cur = cur.BaseClass {
		if p, ok := cur.byName[name]; ok {
			return p, true
		}
	}
	return nil, false
}

// ConcreteClasses returns c and all its descendants that are not abstract.
func (c *ClassDefinition) ConcreteClasses() []*ClassDefinition {
	var cs []*ClassDefinition
	if !c.Abstract {
		cs = append(cs, c)
	}
	for _, d := range c.DerivedClasses {
		cs = append(cs, d.ConcreteClasses()...)
	}
	return cs
}

// PropertyDefinition describes one property of a class.
type PropertyDefinition struct {
	Name         string
	Column       string
	Type         Type
	StorageClass StorageClass
	Mandatory    bool

	// RelatedClass is the class referenced by an ObjectID-valued property.
	RelatedClass *ClassDefinition
	// Class is the declaring class. Set by ClassDefinition.AddProperty.
	Class *ClassDefinition

	// EnumFromOrdinal converts a stored ordinal back to the enum value.
	EnumFromOrdinal func(int64) (any, bool)
	// EnumFromID converts a stored extensible enum ID back to its value.
	EnumFromID func(string) (any, bool)
}

// IsObjectID reports if the property holds a reference to another object.
func (p *PropertyDefinition) IsObjectID() bool {
	return p.Type == TypeObjectID
}

// ClassIDColumn returns the name of the discriminator column paired with
// an ObjectID-valued property column.
func (p *PropertyDefinition) ClassIDColumn() string {
	return p.Column + ClassIDColumn
}
