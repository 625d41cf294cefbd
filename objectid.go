package rdbms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ObjectID identifies one persisted object. It is comparable and can be
// used as a map key as long as Value holds a comparable type; the RDBMS
// provider uses uuid.UUID, int64 or string values.
type ObjectID struct {
	ProviderID string
	ClassID    string
	Value      any
}

// NewObjectID returns an identity after checking that value has a
// supported type.
func NewObjectID(providerID, classID string, value any) (ObjectID, error) {
	if classID == "" {
		return ObjectID{}, errors.New("rdbms: object id requires a class id")
	}
	switch value.(type) {
	case uuid.UUID, int64, string:
	default:
		return ObjectID{}, fmt.Errorf("rdbms: unsupported object id value type %T", value)
	}
	return ObjectID{ProviderID: providerID, ClassID: classID, Value: value}, nil
}

// IsZero reports if id is the zero identity.
func (id ObjectID) IsZero() bool {
	return id.ClassID == "" && id.Value == nil
}

// String returns the fully qualified form "ClassID|Value|kind", which is also
// what gets stored in columns that reference objects of another provider.
func (id ObjectID) String() string {
	return id.ClassID + "|" + fmt.Sprint(id.Value) + "|" + valueKind(id.Value)
}

func valueKind(v any) string {
	switch v.(type) {
	case uuid.UUID:
		return "uuid"
	case int64:
		return "int64"
	case string:
		return "string"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// ParseObjectID parses the fully qualified form produced by String. The
// owning provider is resolved from the class ID with providerOf.
func ParseObjectID(s string, providerOf func(classID string) (string, bool)) (ObjectID, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 3 {
		return ObjectID{}, fmt.Errorf("rdbms: invalid object id %q", s)
	}
	classID, raw, kind := parts[0], parts[1], parts[2]
	providerID, ok := providerOf(classID)
	if !ok {
		return ObjectID{}, fmt.Errorf("rdbms: object id %q references unknown class %q", s, classID)
	}
	var value any
	switch kind {
	case "uuid":
		u, err := uuid.Parse(raw)
		if err != nil {
			return ObjectID{}, fmt.Errorf("rdbms: invalid object id %q: %w", s, err)
		}
		value = u
	case "int64":
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return ObjectID{}, fmt.Errorf("rdbms: invalid object id %q: %w", s, err)
		}
		value = n
	case "string":
		value = raw
	default:
		return ObjectID{}, fmt.Errorf("rdbms: invalid object id %q: unknown value kind %q", s, kind)
	}
	return ObjectID{ProviderID: providerID, ClassID: classID, Value: value}, nil
}
