// Package convert maps values between their domain and storage
// representation.
//
// A ValueConverter is bound to one storage provider. Identities of that
// provider are stored as their bare value, identities of other providers
// as their fully qualified string form. Polymorphic references are decoded
// from the key column together with its ClassID companion column; whether
// a non-hierarchical reference carries such a column is checked once per
// (class, property) and remembered in a ColumnCache.
package convert
