package rdbms

// Enum is implemented by closed enumerations stored as their ordinal.
type Enum interface {
	Ordinal() int64
}

// ExtensibleEnum is implemented by open, user-extensible enumerations stored
// as their stable string identifier.
type ExtensibleEnum interface {
	EnumID() string
}
