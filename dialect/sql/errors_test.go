package sql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

type stateErr string

func (e stateErr) Error() string    { return "state error " + string(e) }
func (e stateErr) SQLState() string { return string(e) }

func TestConstraintErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		unique     bool
		foreignKey bool
		check      bool
	}{
		{"pq unique", &pq.Error{Code: "23505"}, true, false, false},
		{"pq foreign key", fmt.Errorf("wrapped: %w", &pq.Error{Code: "23503"}), false, true, false},
		{"pq check", &pq.Error{Code: "23514"}, false, false, true},
		{"sqlstate unique", stateErr("23505"), true, false, false},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true, false, false},
		{"mysql parent row", &mysql.MySQLError{Number: 1451, Message: "parent row"}, false, true, false},
		{"mysql check", &mysql.MySQLError{Number: 3819, Message: "check"}, false, false, true},
		{"sqlite unique", errors.New("UNIQUE constraint failed: Order.ID"), true, false, false},
		{"sqlite foreign key", errors.New("FOREIGN KEY constraint failed"), false, true, false},
		{"sqlserver duplicate", errors.New("Violation of PRIMARY KEY constraint 'PK_Order'"), true, false, false},
		{"other", errors.New("connection reset"), false, false, false},
		{"nil", nil, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, IsUniqueConstraintError(tt.err))
			assert.Equal(t, tt.foreignKey, IsForeignKeyConstraintError(tt.err))
			assert.Equal(t, tt.check, IsCheckConstraintError(tt.err))
			assert.Equal(t, tt.unique || tt.foreignKey || tt.check, IsConstraintError(tt.err))
		})
	}
}
