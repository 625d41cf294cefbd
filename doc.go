// Package rdbms is the relational persistence core: it maps DataContainers,
// the in-memory state of persisted objects, to rows and back.
//
// The root package holds the data model shared by the sub-packages:
//
//   - ObjectID: the identity of a persisted object.
//   - DataContainer and PropertyValue: the state of one object.
//   - Query: a caller-written statement run through a provider.
//   - The error taxonomy (ArgumentError, SchemaError, ExecutionError,
//     ConsistencyError, ConcurrencyError).
//
// Sub-packages:
//
//   - mapping: read-only class and storage entity metadata.
//   - dialect, dialect/sql: SQL dialects and the database/sql driver.
//   - convert: value conversion between domain and storage values.
//   - command: SQL command builders.
//   - provider: the transactional session that loads and saves containers.
//   - config: file and environment based configuration.
package rdbms
