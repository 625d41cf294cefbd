package rdbms_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/rdbms"
)

var testID = rdbms.ObjectID{ProviderID: "main", ClassID: "Order", Value: int64(42)}

func TestNotFoundError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := rdbms.NewNotFoundError(testID)
		assert.Equal(t, "rdbms: object Order|42|int64 not found", err.Error())
		assert.Equal(t, testID, err.ID())
	})

	t.Run("IsNotFound", func(t *testing.T) {
		err := rdbms.NewNotFoundError(testID)
		assert.True(t, errors.Is(err, rdbms.ErrNotFound))
		assert.True(t, rdbms.IsNotFound(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, rdbms.IsNotFound(wrapped))

		// Sentinel error
		assert.True(t, rdbms.IsNotFound(rdbms.ErrNotFound))

		assert.False(t, rdbms.IsNotFound(errors.New("other error")))
		assert.False(t, rdbms.IsNotFound(nil))
	})
}

func TestArgumentError(t *testing.T) {
	err := rdbms.NewArgumentError("insert", "container %s is %s", testID, rdbms.StateUnchanged)
	assert.Equal(t, "rdbms: insert: container Order|42|int64 is Unchanged", err.Error())
	assert.True(t, rdbms.IsArgumentError(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, rdbms.IsArgumentError(nil))

	sentinel := &rdbms.ArgumentError{Op: "commit", Err: rdbms.ErrNoTransaction}
	assert.Equal(t, "rdbms: commit: rdbms: no active transaction", sentinel.Error())
	assert.ErrorIs(t, sentinel, rdbms.ErrNoTransaction)
}

func TestSchemaError(t *testing.T) {
	err := rdbms.NewMissingColumnError("Order", "Number")
	assert.Equal(t, `rdbms: incorrect database format in entity "Order" column "Number": rdbms: missing mandatory column`, err.Error())
	assert.ErrorIs(t, err, rdbms.ErrMissingColumn)
	assert.True(t, rdbms.IsSchemaError(err))

	err = &rdbms.SchemaError{Entity: "Order", Column: "ClassID", Msg: "identity is null"}
	assert.Equal(t, `rdbms: incorrect database format in entity "Order" column "ClassID": identity is null`, err.Error())
	assert.False(t, rdbms.IsSchemaError(errors.New("other")))
}

func TestExecutionError(t *testing.T) {
	underlying := errors.New("connection reset")
	err := &rdbms.ExecutionError{Op: "update", Intent: "update Order|42|int64", ID: &testID, Err: underlying}
	assert.Equal(t, "rdbms: update (update Order|42|int64) for Order|42|int64: connection reset", err.Error())
	assert.ErrorIs(t, err, underlying)
	assert.True(t, rdbms.IsExecutionError(err))

	assert.Equal(t, "rdbms: connect: connection reset", rdbms.NewExecutionError("connect", "", underlying).Error())
	assert.False(t, rdbms.IsExecutionError(nil))
}

func TestConstraintError(t *testing.T) {
	underlying := errors.New("duplicate key")
	err := rdbms.NewConstraintError("unique violation", underlying)
	assert.Equal(t, "rdbms: constraint failed: unique violation", err.Error())
	assert.ErrorIs(t, err, underlying)

	// Constraint violations surface inside execution errors.
	wrapped := rdbms.NewExecutionError("insert", "", err)
	assert.True(t, rdbms.IsConstraintError(wrapped))
	assert.True(t, rdbms.IsExecutionError(wrapped))
	assert.False(t, rdbms.IsConstraintError(underlying))
	assert.False(t, rdbms.IsConstraintError(nil))
}

func TestConsistencyError(t *testing.T) {
	err := &rdbms.ConsistencyError{ID: testID, Err: rdbms.ErrDuplicateID}
	assert.Contains(t, err.Error(), "inconsistent data for Order|42|int64")
	assert.ErrorIs(t, err, rdbms.ErrDuplicateID)
	assert.True(t, rdbms.IsConsistencyError(fmt.Errorf("load: %w", err)))
	assert.False(t, rdbms.IsConsistencyError(nil))
}

func TestConcurrencyError(t *testing.T) {
	err := &rdbms.ConcurrencyError{ID: testID}
	assert.Equal(t, "rdbms: concurrency violation encountered for Order|42|int64", err.Error())
	assert.True(t, rdbms.IsConcurrencyError(err))
	assert.False(t, rdbms.IsConcurrencyError(errors.New("other")))

	var target *rdbms.ConcurrencyError
	require.ErrorAs(t, fmt.Errorf("save: %w", err), &target)
	assert.Equal(t, testID, target.ID)
}

func TestRollbackError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := &rdbms.RollbackError{Err: errors.New("connection lost")}
		assert.Equal(t, "rdbms: rollback failed: connection lost", err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		underlying := errors.New("timeout")
		err := &rdbms.RollbackError{Err: underlying}
		assert.True(t, errors.Is(err, underlying))
	})
}

func TestAggregateError(t *testing.T) {
	t.Run("NoErrors", func(t *testing.T) {
		assert.Nil(t, rdbms.NewAggregateError())
		assert.Nil(t, rdbms.NewAggregateError(nil, nil, nil))
	})

	t.Run("SingleError", func(t *testing.T) {
		single := errors.New("single error")
		assert.Equal(t, single, rdbms.NewAggregateError(nil, single, nil))
	})

	t.Run("MultipleErrors", func(t *testing.T) {
		err1 := errors.New("error 1")
		err2 := &rdbms.RollbackError{Err: errors.New("error 2")}
		err := rdbms.NewAggregateError(err1, err2)

		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "multiple errors")
		assert.Contains(t, err.Error(), "error 1")
		assert.Contains(t, err.Error(), "error 2")
		assert.ErrorIs(t, err, err1)
		var rb *rdbms.RollbackError
		assert.ErrorAs(t, err, &rb)
	})
}

func TestObjectID(t *testing.T) {
	u := uuid.MustParse("5682f032-2f0b-494b-a31c-c97f02b89621")
	providers := map[string]string{"Order": "main", "Invoice": "billing"}
	providerOf := func(classID string) (string, bool) {
		p, ok := providers[classID]
		return p, ok
	}

	t.Run("NewObjectID", func(t *testing.T) {
		id, err := rdbms.NewObjectID("main", "Order", u)
		require.NoError(t, err)
		assert.False(t, id.IsZero())
		assert.True(t, rdbms.ObjectID{}.IsZero())

		_, err = rdbms.NewObjectID("main", "", u)
		assert.Error(t, err)
		_, err = rdbms.NewObjectID("main", "Order", 3.5)
		assert.Error(t, err)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		for _, id := range []rdbms.ObjectID{
			{ProviderID: "main", ClassID: "Order", Value: u},
			{ProviderID: "billing", ClassID: "Invoice", Value: int64(-7)},
			{ProviderID: "main", ClassID: "Order", Value: "A-17"},
		} {
			parsed, err := rdbms.ParseObjectID(id.String(), providerOf)
			require.NoError(t, err, id.String())
			assert.Equal(t, id, parsed)
		}
		assert.Equal(t, "Order|"+u.String()+"|uuid", rdbms.ObjectID{ClassID: "Order", Value: u}.String())
	})

	t.Run("ParseErrors", func(t *testing.T) {
		for _, s := range []string{
			"Order|1",
			"Unknown|1|int64",
			"Order|x|int64",
			"Order|not-a-uuid|uuid",
			"Order|1|float",
		} {
			_, err := rdbms.ParseObjectID(s, providerOf)
			assert.Error(t, err, s)
		}
	})

	t.Run("MapKey", func(t *testing.T) {
		a, _ := rdbms.NewObjectID("main", "Order", u)
		b, _ := rdbms.NewObjectID("main", "Order", uuid.MustParse(u.String()))
		m := map[rdbms.ObjectID]int{a: 1}
		assert.Equal(t, 1, m[b])
	})
}

func TestSentinelErrors(t *testing.T) {
	for _, err := range []error{
		rdbms.ErrNotFound,
		rdbms.ErrNotConnected,
		rdbms.ErrTxStarted,
		rdbms.ErrNoTransaction,
		rdbms.ErrForeignProvider,
		rdbms.ErrMissingColumn,
		rdbms.ErrDuplicateID,
		rdbms.ErrPhaseTwoMiss,
	} {
		assert.Contains(t, err.Error(), "rdbms: ")
	}
}

// BenchmarkErrors benchmarks error creation and checking.
func BenchmarkErrors(b *testing.B) {
	b.Run("NewNotFoundError", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = rdbms.NewNotFoundError(testID)
		}
	})

	b.Run("IsNotFound", func(b *testing.B) {
		err := rdbms.NewNotFoundError(testID)
		for i := 0; i < b.N; i++ {
			_ = rdbms.IsNotFound(err)
		}
	})

	b.Run("IsConstraintError", func(b *testing.B) {
		err := rdbms.NewExecutionError("insert", "", rdbms.NewConstraintError("unique", nil))
		for i := 0; i < b.N; i++ {
			_ = rdbms.IsConstraintError(err)
		}
	})
}
