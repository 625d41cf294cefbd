// Package mapping holds the read-only metadata the persistence layer consumes:
// storage providers, class and property definitions, storage entity
// definitions and sort expressions.
//
// The metadata is built by a schema loader outside this module; the command
// and provider packages only read it. A minimal hierarchy looks like:
//
//	provider := &mapping.StorageProviderDefinition{ID: "main", Dialect: dialect.Postgres}
//	customers := &mapping.TableDefinition{Name: "Customer"}
//	customer := &mapping.ClassDefinition{ID: "Customer", ProviderID: "main", Entity: customers}
//	customer.AddProperty(&mapping.PropertyDefinition{Name: "Name", Column: "Name", Type: mapping.TypeString})
//
//	s := mapping.NewSchema(provider)
//	s.AddClass(customer)
//
// # Storage Entities
//
// Every class maps to exactly one storage entity, one of:
//
//   - TableDefinition: a physical table.
//   - FilterViewDefinition: a base entity narrowed by a ClassID predicate
//     (single-table inheritance).
//   - UnionViewDefinition: the union of several concrete tables
//     (concrete-table inheritance roots).
//   - NullEntityDefinition: an abstract class with no storage.
//
// Code that needs to branch on the entity kind goes through Dispatch, which
// is exhaustive over these four variants.
package mapping
