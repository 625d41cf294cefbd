package convert

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/rdbms"
	"github.com/syssam/rdbms/mapping"
)

type color int64

func (c color) Ordinal() int64 { return int64(c) }

type region string

func (r region) EnumID() string { return string(r) }

// testSchema builds:
//
//	Person (hierarchical, abstract) <- Customer, Employee
//	Country (standalone)
//	Order -> Customer (hierarchical), Country (standalone), Invoice (other provider)
func testSchema(t *testing.T) (*mapping.Schema, *mapping.ClassDefinition) {
	t.Helper()
	s := mapping.NewSchema(
		&mapping.StorageProviderDefinition{ID: "main", Dialect: "postgres"},
		&mapping.StorageProviderDefinition{ID: "billing", Dialect: "postgres"},
	)
	person := &mapping.ClassDefinition{ID: "Person", ProviderID: "main", Abstract: true}
	customer := &mapping.ClassDefinition{ID: "Customer", ProviderID: "main", Entity: &mapping.TableDefinition{Name: "Customer"}}
	employee := &mapping.ClassDefinition{ID: "Employee", ProviderID: "main", Entity: &mapping.TableDefinition{Name: "Employee"}}
	mapping.Inherit(person, customer, employee)
	country := &mapping.ClassDefinition{ID: "Country", ProviderID: "main", Entity: &mapping.TableDefinition{Name: "Country"}}
	invoice := &mapping.ClassDefinition{ID: "Invoice", ProviderID: "billing", Entity: &mapping.TableDefinition{Name: "Invoice"}}
	order := &mapping.ClassDefinition{ID: "Order", ProviderID: "main", Entity: &mapping.TableDefinition{Name: "Order"}}
	order.
		AddProperty(&mapping.PropertyDefinition{Name: "Customer", Column: "CustomerID", Type: mapping.TypeObjectID, RelatedClass: person}).
		AddProperty(&mapping.PropertyDefinition{Name: "Country", Column: "CountryID", Type: mapping.TypeObjectID, RelatedClass: country}).
		AddProperty(&mapping.PropertyDefinition{Name: "Invoice", Column: "InvoiceID", Type: mapping.TypeObjectID, RelatedClass: invoice})
	require.NoError(t, s.AddClass(person, customer, employee, country, invoice, order))
	return s, order
}

func TestToStorage(t *testing.T) {
	s, _ := testSchema(t)
	c := NewValueConverter("main", s, nil)
	u := uuid.MustParse("5682f032-2f0b-494b-a31c-c97f02b89621")

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"same provider id", rdbms.ObjectID{ProviderID: "main", ClassID: "Order", Value: u}, u},
		{"other provider id", rdbms.ObjectID{ProviderID: "billing", ClassID: "Invoice", Value: int64(7)}, "Invoice|7|int64"},
		{"zero id", rdbms.ObjectID{}, nil},
		{"nil id pointer", (*rdbms.ObjectID)(nil), nil},
		{"enum", color(3), int64(3)},
		{"extensible enum", region("emea"), "emea"},
		{"plain", "text", "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.ToStorage(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromStorage(t *testing.T) {
	s, _ := testSchema(t)
	c := NewValueConverter("main", s, nil)
	u := uuid.MustParse("5682f032-2f0b-494b-a31c-c97f02b89621")
	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	colors := func(n int64) (any, bool) { return color(n), n < 4 }

	tests := []struct {
		name string
		prop *mapping.PropertyDefinition
		raw  any
		want any
	}{
		{"null string", &mapping.PropertyDefinition{Name: "p", Type: mapping.TypeString}, nil, nil},
		{"string from bytes", &mapping.PropertyDefinition{Name: "p", Type: mapping.TypeString}, []byte("x"), "x"},
		{"int", &mapping.PropertyDefinition{Name: "p", Type: mapping.TypeInt}, int64(5), 5},
		{"int64 from text", &mapping.PropertyDefinition{Name: "p", Type: mapping.TypeInt64}, "12", int64(12)},
		{"float", &mapping.PropertyDefinition{Name: "p", Type: mapping.TypeFloat}, int64(2), float64(2)},
		{"bool", &mapping.PropertyDefinition{Name: "p", Type: mapping.TypeBool}, int64(1), true},
		{"time", &mapping.PropertyDefinition{Name: "p", Type: mapping.TypeTime}, ts, ts},
		{"time from text", &mapping.PropertyDefinition{Name: "p", Type: mapping.TypeTime}, "2024-05-01 12:30:00+00:00", ts},
		{"uuid from text", &mapping.PropertyDefinition{Name: "p", Type: mapping.TypeUUID}, u.String(), u},
		{"bytes", &mapping.PropertyDefinition{Name: "p", Type: mapping.TypeBytes}, []byte{1, 2}, []byte{1, 2}},
		{"enum", &mapping.PropertyDefinition{Name: "p", Type: mapping.TypeEnum, EnumFromOrdinal: colors}, int64(2), color(2)},
		{"enum without hook", &mapping.PropertyDefinition{Name: "p", Type: mapping.TypeEnum}, int64(2), int64(2)},
		{"extensible enum", &mapping.PropertyDefinition{Name: "p", Type: mapping.TypeExtensibleEnum}, "emea", "emea"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.FromStorage(tt.prop, tt.raw)
			require.NoError(t, err)
			if want, ok := tt.want.(time.Time); ok {
				assert.True(t, want.Equal(got.(time.Time)))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("undefined enum", func(t *testing.T) {
		_, err := c.FromStorage(&mapping.PropertyDefinition{Name: "p", Type: mapping.TypeEnum, EnumFromOrdinal: colors}, int64(9))
		assert.Error(t, err)
	})
	t.Run("bad int", func(t *testing.T) {
		_, err := c.FromStorage(&mapping.PropertyDefinition{Name: "p", Type: mapping.TypeInt}, "abc")
		assert.Error(t, err)
	})
}

func TestResolveIdentity(t *testing.T) {
	s, order := testSchema(t)
	c := NewValueConverter("main", s, nil)
	u := uuid.New()
	ticket := &mapping.ClassDefinition{ID: "Ticket", ProviderID: "main", Key: mapping.KeyInt64}
	account := &mapping.ClassDefinition{ID: "Account", ProviderID: "main", Key: mapping.KeyString}

	tests := []struct {
		name  string
		class *mapping.ClassDefinition
		raw   any
		want  any
	}{
		{"uuid text", order, u.String(), u},
		{"uuid text bytes", order, []byte(u.String()), u},
		{"uuid binary", order, u[:], u},
		{"uuid value", order, u, u},
		{"int64", ticket, int64(42), int64(42)},
		{"int64 text bytes", ticket, []byte("42"), int64(42)},
		{"string", account, "A-17", "A-17"},
		{"string holding a uuid", account, u.String(), u.String()},
		{"string of sixteen bytes", account, []byte("ORDER-0000000001"), "ORDER-0000000001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := c.ResolveIdentity(tt.class, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, rdbms.ObjectID{ProviderID: "main", ClassID: tt.class.ID, Value: tt.want}, id)
		})
	}

	for name, tt := range map[string]struct {
		class *mapping.ClassDefinition
		raw   any
	}{
		"null":             {order, nil},
		"int64 for uuid":   {order, int64(42)},
		"text for uuid":    {order, "A-17"},
		"text for int64":   {ticket, "A-17"},
		"int64 for string": {account, int64(3)},
	} {
		_, err := c.ResolveIdentity(tt.class, tt.raw)
		assert.Error(t, err, name)
	}
}

func TestResolveClass(t *testing.T) {
	s, _ := testSchema(t)
	c := NewValueConverter("main", s, nil)

	class, err := c.ResolveClass("Order", "ClassID", []byte("Customer"))
	require.NoError(t, err)
	assert.Equal(t, "Customer", class.ID)

	for _, raw := range []any{"Person", "Nope", nil} {
		_, err := c.ResolveClass("Order", "ClassID", raw)
		assert.True(t, rdbms.IsSchemaError(err), "%v", raw)
	}
}

func TestRelatedID(t *testing.T) {
	s, order := testSchema(t)
	customerProp, _ := order.Property("Customer")
	countryProp, _ := order.Property("Country")
	invoiceProp, _ := order.Property("Invoice")
	u := uuid.New()

	row := func(cols []string, vals ...any) Row { return NewRecord("Order", cols, vals) }

	t.Run("hierarchical", func(t *testing.T) {
		c := NewValueConverter("main", s, nil)
		id, ok, err := c.RelatedID(row([]string{"CustomerID", "CustomerIDClassID"}, u.String(), "Employee"), order, customerProp)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, rdbms.ObjectID{ProviderID: "main", ClassID: "Employee", Value: u}, id)

		_, ok, err = c.RelatedID(row([]string{"CustomerID", "CustomerIDClassID"}, nil, nil), order, customerProp)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("hierarchical mismatch", func(t *testing.T) {
		c := NewValueConverter("main", s, nil)
		_, _, err := c.RelatedID(row([]string{"CustomerID", "CustomerIDClassID"}, u.String(), nil), order, customerProp)
		assert.True(t, rdbms.IsSchemaError(err))
		_, _, err = c.RelatedID(row([]string{"CustomerID", "CustomerIDClassID"}, nil, "Customer"), order, customerProp)
		assert.True(t, rdbms.IsSchemaError(err))
		_, _, err = c.RelatedID(row([]string{"CustomerID", "CustomerIDClassID"}, u.String(), "Person"), order, customerProp)
		assert.True(t, rdbms.IsSchemaError(err), "abstract class")
	})

	t.Run("hierarchical missing companion", func(t *testing.T) {
		c := NewValueConverter("main", s, nil)
		_, _, err := c.RelatedID(row([]string{"CustomerID"}, u.String()), order, customerProp)
		require.Error(t, err)
		assert.True(t, errors.Is(err, rdbms.ErrMissingColumn))
	})

	t.Run("standalone", func(t *testing.T) {
		cache := NewColumnCache()
		c := NewValueConverter("main", s, cache)
		id, ok, err := c.RelatedID(row([]string{"CountryID"}, u.String()), order, countryProp)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "Country", id.ClassID)

		present, cached := cache.Lookup("Order", "Country")
		assert.True(t, cached)
		assert.False(t, present)
	})

	t.Run("standalone with companion", func(t *testing.T) {
		c := NewValueConverter("main", s, nil)
		_, _, err := c.RelatedID(row([]string{"CountryID", "CountryIDClassID"}, u.String(), "Country"), order, countryProp)
		assert.True(t, rdbms.IsSchemaError(err))
	})

	t.Run("presence is cached", func(t *testing.T) {
		cache := NewColumnCache()
		cache.Store("Order", "Country", true)
		c := NewValueConverter("main", s, cache)
		_, _, err := c.RelatedID(row([]string{"CountryID"}, nil), order, countryProp)
		assert.True(t, rdbms.IsSchemaError(err), "cached presence wins over the row")

		cache.Reset()
		_, ok, err := c.RelatedID(row([]string{"CountryID"}, nil), order, countryProp)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("other provider", func(t *testing.T) {
		c := NewValueConverter("main", s, nil)
		id, ok, err := c.RelatedID(row([]string{"InvoiceID"}, "Invoice|9|int64"), order, invoiceProp)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, rdbms.ObjectID{ProviderID: "billing", ClassID: "Invoice", Value: int64(9)}, id)
	})

	t.Run("missing key column", func(t *testing.T) {
		c := NewValueConverter("main", s, nil)
		_, _, err := c.RelatedID(row([]string{"ID"}, u.String()), order, countryProp)
		assert.ErrorIs(t, err, rdbms.ErrMissingColumn)
	})
}

func TestRecordOrdinal(t *testing.T) {
	r := NewRecord("Order", []string{"ID", "classid"}, []any{1, "Order"})
	i, ok := r.Ordinal("ID")
	assert.True(t, ok)
	assert.Equal(t, 0, i)
	i, ok = r.Ordinal("ClassID")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	_, ok = r.Ordinal("Timestamp")
	assert.False(t, ok)

	_, err := MandatoryOrdinal(r, "Timestamp")
	var se *rdbms.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Order", se.Entity)
	assert.Equal(t, "Timestamp", se.Column)
}

func TestColumnCache(t *testing.T) {
	c := NewColumnCache()
	_, ok := c.Lookup("A", "p")
	assert.False(t, ok)
	c.Store("A", "p", true)
	present, ok := c.Lookup("A", "p")
	assert.True(t, ok)
	assert.True(t, present)
	assert.Equal(t, 1, c.Len())
	c.Reset()
	assert.Zero(t, c.Len())
}
