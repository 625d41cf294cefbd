package rdbms

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested object does not exist.
	ErrNotFound = errors.New("rdbms: object not found")

	// ErrNotConnected is returned by operations that need an open connection.
	ErrNotConnected = errors.New("rdbms: provider is not connected")

	// ErrTxStarted is returned when attempting to start a new transaction
	// within an existing transaction.
	ErrTxStarted = errors.New("rdbms: cannot start a transaction within a transaction")

	// ErrNoTransaction is returned by commit, rollback and save when no
	// transaction is active.
	ErrNoTransaction = errors.New("rdbms: no active transaction")

	// ErrForeignProvider is returned when an identity or query of another
	// storage provider is passed to a single-provider operation.
	ErrForeignProvider = errors.New("rdbms: object belongs to another storage provider")

	// ErrMissingColumn is wrapped by a SchemaError when a mandatory column is
	// not present in a result row.
	ErrMissingColumn = errors.New("rdbms: missing mandatory column")

	// ErrDuplicateID is wrapped by a ConsistencyError when a result contains
	// the same identity twice.
	ErrDuplicateID = errors.New("rdbms: duplicate identity in result")

	// ErrPhaseTwoMiss is wrapped by a ConsistencyError when an identity found
	// through a union view cannot be loaded from its concrete table.
	ErrPhaseTwoMiss = errors.New("rdbms: identity resolved through union view was not found")
)

// NotFoundError represents an error when an object is not found.
type NotFoundError struct {
	id ObjectID
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("rdbms: object %s not found", e.id)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// ID returns the identity that was searched for.
func (e *NotFoundError) ID() ObjectID {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given identity.
func NewNotFoundError(id ObjectID) *NotFoundError {
	return &NotFoundError{id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// ArgumentError reports a caller-fixable precondition violation, such as a
// container in the wrong state for a command.
type ArgumentError struct {
	Op  string // Operation that rejected the argument
	Msg string
	Err error // Optional sentinel
}

// Error returns the error string.
func (e *ArgumentError) Error() string {
	if e.Msg == "" && e.Err != nil {
		return fmt.Sprintf("rdbms: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("rdbms: %s: %s", e.Op, e.Msg)
}

// Unwrap returns the underlying error.
func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// NewArgumentError returns a new ArgumentError.
func NewArgumentError(op, format string, args ...any) *ArgumentError {
	return &ArgumentError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// IsArgumentError returns true if the error is an ArgumentError.
func IsArgumentError(err error) bool {
	if err == nil {
		return false
	}
	var e *ArgumentError
	return errors.As(err, &e)
}

// SchemaError reports a drift between the physical schema and the mapping
// metadata, naming the offending entity and column.
type SchemaError struct {
	Entity string
	Column string
	Msg    string
	Err    error // Optional sentinel, e.g. ErrMissingColumn
}

// Error returns the error string.
func (e *SchemaError) Error() string {
	var sb strings.Builder
	sb.WriteString("rdbms: incorrect database format")
	if e.Entity != "" {
		fmt.Fprintf(&sb, " in entity %q", e.Entity)
	}
	if e.Column != "" {
		fmt.Fprintf(&sb, " column %q", e.Column)
	}
	switch {
	case e.Msg != "":
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	case e.Err != nil:
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *SchemaError) Unwrap() error {
	return e.Err
}

// NewMissingColumnError returns a SchemaError for a mandatory column that is
// absent from a result.
func NewMissingColumnError(entity, column string) *SchemaError {
	return &SchemaError{Entity: entity, Column: column, Err: ErrMissingColumn}
}

// IsSchemaError returns true if the error is a SchemaError.
func IsSchemaError(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemaError
	return errors.As(err, &e)
}

// ExecutionError wraps a driver error with the operation context.
type ExecutionError struct {
	Op     string    // Operation (e.g., "connect", "query", "commit")
	Intent string    // Statement intent, if any
	ID     *ObjectID // Identity involved, if any
	Err    error     // Underlying error
}

// Error returns the error string.
func (e *ExecutionError) Error() string {
	var sb strings.Builder
	sb.WriteString("rdbms: ")
	sb.WriteString(e.Op)
	if e.Intent != "" {
		fmt.Fprintf(&sb, " (%s)", e.Intent)
	}
	if e.ID != nil {
		fmt.Fprintf(&sb, " for %s", *e.ID)
	}
	fmt.Fprintf(&sb, ": %v", e.Err)
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewExecutionError returns a new ExecutionError.
func NewExecutionError(op, intent string, err error) *ExecutionError {
	return &ExecutionError{Op: op, Intent: intent, Err: err}
}

// IsExecutionError returns true if the error is an ExecutionError.
func IsExecutionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ExecutionError
	return errors.As(err, &e)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("rdbms: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// ConsistencyError reports data that breaks an invariant of a load, such as a
// duplicate identity in one batch. It is not recoverable at this layer.
type ConsistencyError struct {
	ID  ObjectID
	Err error
}

// Error returns the error string.
func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("rdbms: inconsistent data for %s: %v", e.ID, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConsistencyError) Unwrap() error {
	return e.Err
}

// IsConsistencyError returns true if the error is a ConsistencyError.
func IsConsistencyError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConsistencyError
	return errors.As(err, &e)
}

// ConcurrencyError is returned by a save when an update or delete did not
// affect exactly one row, meaning the row changed or vanished since it
// was loaded.
type ConcurrencyError struct {
	ID ObjectID
}

// Error returns the error string.
func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("rdbms: concurrency violation encountered for %s", e.ID)
}

// IsConcurrencyError returns true if the error is a ConcurrencyError.
func IsConcurrencyError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConcurrencyError
	return errors.As(err, &e)
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err error // Original error that triggered rollback
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("rdbms: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "rdbms: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("rdbms: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
