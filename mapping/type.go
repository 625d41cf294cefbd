package mapping

import (
	"strconv"

	"github.com/google/uuid"
)

// Type is the domain type of a property value.
type Type uint8

// List of property types.
const (
	TypeInvalid Type = iota
	TypeString
	TypeInt
	TypeInt64
	TypeFloat
	TypeBool
	TypeTime
	TypeUUID
	TypeBytes
	TypeEnum
	TypeExtensibleEnum
	TypeObjectID
	endTypes
)

var typeNames = [...]string{
	TypeInvalid:        "invalid",
	TypeString:         "string",
	TypeInt:            "int",
	TypeInt64:          "int64",
	TypeFloat:          "float64",
	TypeBool:           "bool",
	TypeTime:           "time.Time",
	TypeUUID:           "uuid.UUID",
	TypeBytes:          "[]byte",
	TypeEnum:           "enum",
	TypeExtensibleEnum: "extensible enum",
	TypeObjectID:       "ObjectID",
}

// String returns the string representation of a type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Valid reports if the given type is a known type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t == TypeInt || t == TypeInt64 || t == TypeFloat || t == TypeEnum
}

// StorageClass tells whether a property value is written to the database.
type StorageClass uint8

const (
	// StoragePersistent values are read from and written to columns.
	StoragePersistent StorageClass = iota
	// StorageTransaction values live only for the current transaction
	// and never reach SQL.
	StorageTransaction
)

// String implements fmt.Stringer.
func (s StorageClass) String() string {
	switch s {
	case StoragePersistent:
		return "persistent"
	case StorageTransaction:
		return "transaction"
	default:
		return "invalid"
	}
}

// Fixed column names carried by every mapped table.
const (
	IDColumn        = "ID"
	ClassIDColumn   = "ClassID"
	TimestampColumn = "Timestamp"
)

// KeyKind is the Go type of the identity values of a class.
type KeyKind uint8

// List of key kinds.
const (
	// KeyDefault takes the kind of the base class, UUID for root classes.
	KeyDefault KeyKind = iota
	KeyUUID
	KeyInt64
	KeyString
)

var keyNames = [...]string{
	KeyDefault: "default",
	KeyUUID:    "uuid",
	KeyInt64:   "int64",
	KeyString:  "string",
}

// String returns the string representation of a key kind.
func (k KeyKind) String() string {
	if int(k) < len(keyNames) {
		return keyNames[k]
	}
	return "KeyKind(" + strconv.Itoa(int(k)) + ")"
}

// Accepts reports if v is an identity value of kind k.
func (k KeyKind) Accepts(v any) bool {
	switch v.(type) {
	case uuid.UUID:
		return k == KeyUUID || k == KeyDefault
	case int64:
		return k == KeyInt64
	case string:
		return k == KeyString
	default:
		return false
	}
}
