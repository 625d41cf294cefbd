package convert

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/rdbms"
	"github.com/syssam/rdbms/mapping"
)

// ValueConverter converts property values of one storage provider.
type ValueConverter struct {
	providerID string
	schema     *mapping.Schema
	cache      *ColumnCache
}

// NewValueConverter returns a converter for the provider with the given ID.
// A nil cache gets replaced by a private one.
func NewValueConverter(providerID string, schema *mapping.Schema, cache *ColumnCache) *ValueConverter {
	if cache == nil {
		cache = NewColumnCache()
	}
	return &ValueConverter{providerID: providerID, schema: schema, cache: cache}
}

// ProviderID returns the ID of the provider the converter is bound to.
func (c *ValueConverter) ProviderID() string { return c.providerID }

// Cache returns the companion column cache.
func (c *ValueConverter) Cache() *ColumnCache { return c.cache }

// ToStorage converts a domain value to the value bound as a driver
// parameter.
func (c *ValueConverter) ToStorage(v any) (any, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case rdbms.ObjectID:
		if v.IsZero() {
			return nil, nil
		}
		return c.IDToStorage(v), nil
	case *rdbms.ObjectID:
		if v == nil || v.IsZero() {
			return nil, nil
		}
		return c.IDToStorage(*v), nil
	case rdbms.Enum:
		return v.Ordinal(), nil
	case rdbms.ExtensibleEnum:
		return v.EnumID(), nil
	default:
		return v, nil
	}
}

// IDToStorage returns the bare identity value for identities of this
// provider and the fully qualified string form otherwise.
func (c *ValueConverter) IDToStorage(id rdbms.ObjectID) any {
	if id.ProviderID == c.providerID {
		return id.Value
	}
	return id.String()
}

// FromStorage converts a raw driver value to the domain value of prop.
// Database NULL becomes nil for every type.
func (c *ValueConverter) FromStorage(prop *mapping.PropertyDefinition, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch prop.Type {
	case mapping.TypeString:
		var s sql.NullString
		if err := s.Scan(raw); err != nil {
			return nil, convErr(prop, raw, err)
		}
		return s.String, nil
	case mapping.TypeInt, mapping.TypeInt64:
		var n sql.NullInt64
		if err := n.Scan(raw); err != nil {
			return nil, convErr(prop, raw, err)
		}
		if prop.Type == mapping.TypeInt {
			return int(n.Int64), nil
		}
		return n.Int64, nil
	case mapping.TypeFloat:
		var f sql.NullFloat64
		if err := f.Scan(raw); err != nil {
			return nil, convErr(prop, raw, err)
		}
		return f.Float64, nil
	case mapping.TypeBool:
		var b sql.NullBool
		if err := b.Scan(raw); err != nil {
			return nil, convErr(prop, raw, err)
		}
		return b.Bool, nil
	case mapping.TypeTime:
		return timeValue(prop, raw)
	case mapping.TypeUUID:
		if u, ok := raw.(uuid.UUID); ok {
			return u, nil
		}
		var u uuid.NullUUID
		if err := u.Scan(raw); err != nil {
			return nil, convErr(prop, raw, err)
		}
		return u.UUID, nil
	case mapping.TypeBytes:
		switch b := raw.(type) {
		case []byte:
			return append([]byte(nil), b...), nil
		case string:
			return []byte(b), nil
		}
		return nil, convErr(prop, raw, nil)
	case mapping.TypeEnum:
		var n sql.NullInt64
		if err := n.Scan(raw); err != nil {
			return nil, convErr(prop, raw, err)
		}
		if prop.EnumFromOrdinal == nil {
			return n.Int64, nil
		}
		v, ok := prop.EnumFromOrdinal(n.Int64)
		if !ok {
			return nil, fmt.Errorf("convert: property %q: undefined enum ordinal %d", prop.Name, n.Int64)
		}
		return v, nil
	case mapping.TypeExtensibleEnum:
		var s sql.NullString
		if err := s.Scan(raw); err != nil {
			return nil, convErr(prop, raw, err)
		}
		if prop.EnumFromID == nil {
			return s.String, nil
		}
		v, ok := prop.EnumFromID(s.String)
		if !ok {
			return nil, fmt.Errorf("convert: property %q: undefined enum value %q", prop.Name, s.String)
		}
		return v, nil
	case mapping.TypeObjectID:
		if prop.RelatedClass == nil {
			return nil, fmt.Errorf("convert: property %q has no related class", prop.Name)
		}
		if prop.RelatedClass.ProviderID != c.providerID {
			return c.parseForeignID(raw)
		}
		return c.ResolveIdentity(prop.RelatedClass, raw)
	default:
		return nil, fmt.Errorf("convert: property %q has invalid type %s", prop.Name, prop.Type)
	}
}

// Layouts tried for time values stored as text.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func timeValue(prop *mapping.PropertyDefinition, raw any) (any, error) {
	var s string
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return nil, convErr(prop, raw, nil)
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, convErr(prop, raw, nil)
}

func convErr(prop *mapping.PropertyDefinition, raw any, err error) error {
	if err != nil {
		return fmt.Errorf("convert: property %q: cannot convert %T to %s: %w", prop.Name, raw, prop.Type, err)
	}
	return fmt.Errorf("convert: property %q: cannot convert %T to %s", prop.Name, raw, prop.Type)
}

// ResolveIdentity returns the identity of an object of class stored with
// the raw key value. The value is decoded into the key kind of the class,
// so an identity read back equals the one that was written.
func (c *ValueConverter) ResolveIdentity(class *mapping.ClassDefinition, raw any) (rdbms.ObjectID, error) {
	v, err := identityValue(class.KeyKind(), raw)
	if err != nil {
		return rdbms.ObjectID{}, fmt.Errorf("convert: identity of class %q: %w", class.ID, err)
	}
	return rdbms.NewObjectID(class.ProviderID, class.ID, v)
}

func identityValue(kind mapping.KeyKind, raw any) (any, error) {
	if raw == nil {
		return nil, errors.New("null identity value")
	}
	switch kind {
	case mapping.KeyInt64:
		var n sql.NullInt64
		if err := n.Scan(raw); err != nil {
			return nil, err
		}
		return n.Int64, nil
	case mapping.KeyString:
		switch v := raw.(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		default:
			return nil, fmt.Errorf("unsupported string identity value type %T", raw)
		}
	default:
		switch v := raw.(type) {
		case uuid.UUID:
			return v, nil
		case [16]byte:
			return uuid.UUID(v), nil
		case []byte:
			// Binary columns hold the 16 raw bytes, text columns the
			// canonical form.
			if len(v) == 16 {
				return uuid.FromBytes(v)
			}
			return uuid.ParseBytes(v)
		case string:
			return uuid.Parse(v)
		default:
			return nil, fmt.Errorf("unsupported uuid identity value type %T", raw)
		}
	}
}

// ResolveClass returns the concrete class named by a ClassID column value.
// Unknown and abstract classes are schema errors.
func (c *ValueConverter) ResolveClass(entity, column string, raw any) (*mapping.ClassDefinition, error) {
	var s sql.NullString
	if err := s.Scan(raw); err != nil {
		return nil, &rdbms.SchemaError{Entity: entity, Column: column, Msg: err.Error()}
	}
	if !s.Valid {
		return nil, &rdbms.SchemaError{Entity: entity, Column: column, Msg: "class id is null"}
	}
	class, ok := c.schema.Class(s.String)
	if !ok {
		return nil, &rdbms.SchemaError{Entity: entity, Column: column, Msg: fmt.Sprintf("unknown class %q", s.String)}
	}
	if class.Abstract {
		return nil, &rdbms.SchemaError{Entity: entity, Column: column, Msg: fmt.Sprintf("class %q is abstract", s.String)}
	}
	return class, nil
}

// RelatedID decodes the reference held by prop in row, read for objects of
// class. ok is false for a null reference.
//
// References to hierarchical classes of the same provider need the ClassID
// companion column to know the concrete class; it must be null exactly when
// the key is null. References to other classes must not carry it. Whether
// the companion column is present is checked once per class and property.
func (c *ValueConverter) RelatedID(row Row, class *mapping.ClassDefinition, prop *mapping.PropertyDefinition) (id rdbms.ObjectID, ok bool, err error) {
	related := prop.RelatedClass
	if related == nil {
		return id, false, fmt.Errorf("convert: property %q has no related class", prop.Name)
	}
	ord, err := MandatoryOrdinal(row, prop.Column)
	if err != nil {
		return id, false, err
	}
	raw := row.Value(ord)
	if related.ProviderID != c.providerID {
		if raw == nil {
			return id, false, nil
		}
		id, err = c.parseForeignID(raw)
		return id, err == nil, err
	}
	companion := prop.ClassIDColumn()
	if related.IsPartOfInheritanceHierarchy() {
		cord, err := MandatoryOrdinal(row, companion)
		if err != nil {
			return id, false, err
		}
		craw := row.Value(cord)
		switch {
		case raw == nil && craw == nil:
			return id, false, nil
		case raw == nil:
			return id, false, &rdbms.SchemaError{Entity: row.Entity(), Column: companion,
				Msg: fmt.Sprintf("must be null because column %q is null", prop.Column)}
		case craw == nil:
			return id, false, &rdbms.SchemaError{Entity: row.Entity(), Column: companion,
				Msg: fmt.Sprintf("must not be null because column %q is not null", prop.Column)}
		}
		concrete, err := c.ResolveClass(row.Entity(), companion, craw)
		if err != nil {
			return id, false, err
		}
		id, err = c.ResolveIdentity(concrete, raw)
		return id, err == nil, err
	}
	present, cached := c.cache.Lookup(class.ID, prop.Name)
	if !cached {
		_, present = row.Ordinal(companion)
		c.cache.Store(class.ID, prop.Name, present)
	}
	if present {
		return id, false, &rdbms.SchemaError{Entity: row.Entity(), Column: companion,
			Msg: fmt.Sprintf("must not exist because class %q is not part of an inheritance hierarchy", related.ID)}
	}
	if raw == nil {
		return id, false, nil
	}
	id, err = c.ResolveIdentity(related, raw)
	return id, err == nil, err
}

func (c *ValueConverter) parseForeignID(raw any) (rdbms.ObjectID, error) {
	var s sql.NullString
	if err := s.Scan(raw); err != nil {
		return rdbms.ObjectID{}, fmt.Errorf("convert: foreign identity: %w", err)
	}
	return rdbms.ParseObjectID(s.String, c.schema.ProviderOf)
}
