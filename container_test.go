package rdbms_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/rdbms"
	"github.com/syssam/rdbms/mapping"
)

func orderClass() *mapping.ClassDefinition {
	customer := &mapping.ClassDefinition{ID: "Customer", ProviderID: "main"}
	order := &mapping.ClassDefinition{ID: "Order", ProviderID: "main", Entity: &mapping.TableDefinition{Name: "Order"}}
	order.
		AddProperty(&mapping.PropertyDefinition{Name: "Number", Column: "Number", Type: mapping.TypeInt64}).
		AddProperty(&mapping.PropertyDefinition{Name: "Blob", Column: "Blob", Type: mapping.TypeBytes}).
		AddProperty(&mapping.PropertyDefinition{Name: "Customer", Column: "CustomerID", Type: mapping.TypeObjectID, RelatedClass: customer}).
		AddProperty(&mapping.PropertyDefinition{Name: "Memo", Type: mapping.TypeString, StorageClass: mapping.StorageTransaction})
	return order
}

func TestDataContainerStates(t *testing.T) {
	class := orderClass()

	t.Run("New", func(t *testing.T) {
		dc := rdbms.NewDataContainer(testID, class)
		assert.Equal(t, rdbms.StateNew, dc.State())
		assert.Nil(t, dc.Value("Number"))
		require.NoError(t, dc.SetValue("Number", int64(1)))
		assert.Equal(t, rdbms.StateNew, dc.State())

		dc.Commit()
		assert.Equal(t, rdbms.StateUnchanged, dc.State())
		assert.Equal(t, int64(1), dc.Value("Number"))
	})

	t.Run("New then deleted is discarded", func(t *testing.T) {
		dc := rdbms.NewDataContainer(testID, class)
		dc.Delete()
		assert.Equal(t, rdbms.StateDiscarded, dc.State())
		assert.True(t, rdbms.IsArgumentError(dc.SetValue("Number", int64(2))))
	})

	t.Run("Changed is derived", func(t *testing.T) {
		dc := rdbms.LoadedDataContainer(testID, class, "tok", map[string]any{"Number": int64(1), "Blob": []byte{1, 2}})
		assert.Equal(t, rdbms.StateUnchanged, dc.State())
		assert.Equal(t, "tok", dc.Token())

		require.NoError(t, dc.SetValue("Blob", []byte{1, 2}))
		assert.Equal(t, rdbms.StateUnchanged, dc.State(), "equal bytes are no change")

		require.NoError(t, dc.SetValue("Number", int64(2)))
		assert.Equal(t, rdbms.StateChanged, dc.State())
		pv, ok := dc.PropertyValue("Number")
		require.True(t, ok)
		assert.True(t, pv.HasChanged())
		assert.Equal(t, int64(1), pv.OriginalValue())

		require.NoError(t, dc.SetValue("Number", int64(1)))
		assert.Equal(t, rdbms.StateUnchanged, dc.State(), "restoring the original value")
	})

	t.Run("MarkChanged", func(t *testing.T) {
		dc := rdbms.LoadedDataContainer(testID, class, "tok", nil)
		require.NoError(t, dc.MarkChanged())
		assert.True(t, dc.HasBeenMarkedChanged())
		assert.Equal(t, rdbms.StateChanged, dc.State())
		dc.Commit()
		assert.False(t, dc.HasBeenMarkedChanged())
		assert.Equal(t, rdbms.StateUnchanged, dc.State())

		assert.True(t, rdbms.IsArgumentError(rdbms.NewDataContainer(testID, class).MarkChanged()))
	})

	t.Run("Deleted", func(t *testing.T) {
		dc := rdbms.LoadedDataContainer(testID, class, "tok", nil)
		dc.Delete()
		assert.Equal(t, rdbms.StateDeleted, dc.State())
		dc.Commit()
		assert.Equal(t, rdbms.StateDiscarded, dc.State())
	})

	t.Run("Discard", func(t *testing.T) {
		dc := rdbms.LoadedDataContainer(testID, class, "tok", nil)
		dc.Discard()
		assert.Equal(t, rdbms.StateDiscarded, dc.State())
		dc.Commit()
		assert.Equal(t, rdbms.StateDiscarded, dc.State())
	})
}

func TestDataContainerValues(t *testing.T) {
	class := orderClass()
	dc := rdbms.NewDataContainer(testID, class)

	assert.Len(t, dc.PropertyValues(), 4)
	assert.True(t, dc.HasObjectIDProperties())
	assert.True(t, rdbms.IsArgumentError(dc.SetValue("Missing", 1)))
	assert.Nil(t, dc.Value("Missing"))

	memo, ok := dc.PropertyValue("Memo")
	require.True(t, ok)
	assert.False(t, memo.IsPersistent())
	assert.Equal(t, "Memo", memo.Name())
	assert.Same(t, class, memo.Definition().Class)

	dc.SetToken([]byte{0, 0, 1})
	assert.True(t, rdbms.TokenEqual([]byte{0, 0, 1}, dc.Token()))
	assert.False(t, rdbms.TokenEqual([]byte{0, 0, 2}, dc.Token()))

	plain := &mapping.ClassDefinition{ID: "Country", ProviderID: "main"}
	plain.AddProperty(&mapping.PropertyDefinition{Name: "Name", Column: "Name", Type: mapping.TypeString})
	assert.False(t, rdbms.NewDataContainer(testID, plain).HasObjectIDProperties())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Changed", rdbms.StateChanged.String())
	assert.Equal(t, "State(9)", rdbms.State(9).String())
}
