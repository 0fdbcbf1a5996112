package ioc

import (
	"reflect"
	"strconv"
)

// Key identifies an abstraction in a Container.
//
// A key is either a type identity (Type set, Name empty), a named variant of
// a type (Type and Name set), or a bare string contract (Type nil, Name set).
// The zero Key is invalid.
type Key struct {
	Type reflect.Type
	Name string
}

// TypeKey returns the key for the type T.
//
//	c.Register(ioc.TypeKey[Logger](), newLogger)
func TypeKey[T any]() Key {
	return Key{Type: typeOf[T]()}
}

// NamedKey returns the key for a named variant of T.
//
//	c.Register(ioc.NamedKey[*sql.DB]("replica"), openReplica)
func NamedKey[T any](name string) Key {
	return Key{Type: typeOf[T](), Name: name}
}

// ContractKey returns a key identified only by a contract name.
func ContractKey(name string) Key {
	return Key{Name: name}
}

// KeyOf returns the type key for the dynamic type of v.
// It returns the zero Key for a nil interface.
func KeyOf(v any) Key {
	return Key{Type: reflect.TypeOf(v)}
}

// IsZero reports whether k identifies nothing.
func (k Key) IsZero() bool {
	return k.Type == nil && k.Name == ""
}

// IsContract reports whether k is a bare string contract.
func (k Key) IsContract() bool {
	return k.Type == nil && k.Name != ""
}

// String formats the key as *Type, *Type[name] or "contract".
func (k Key) String() string {
	switch {
	case k.IsZero():
		return "<nil key>"
	case k.IsContract():
		return strconv.Quote(k.Name)
	case k.Name == "":
		return formatType(k.Type)
	default:
		return formatType(k.Type) + "[" + k.Name + "]"
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// formatType formats a reflect.Type for keys and error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "[]" + elem.Name()
		}
		return t.String()
	case reflect.Func:
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}
