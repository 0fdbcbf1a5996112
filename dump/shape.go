package dump

import (
	"fmt"
	"reflect"
)

// Shape is the category a value is printed as.
type Shape int

const (
	// Null is a nil value, nil pointer, nil interface, nil map or nil slice.
	Null Shape = iota

	// Primitive is printed on one line: numbers, strings, booleans, and
	// opaque values such as functions, channels and structs without
	// exported fields that implement fmt.Stringer.
	Primitive

	// Collection is a slice, array or map, printed element by element.
	Collection

	// Object is a struct or a Dumpable, printed field by field.
	Object
)

func (s Shape) String() string {
	switch s {
	case Null:
		return "Null"
	case Primitive:
		return "Primitive"
	case Collection:
		return "Collection"
	case Object:
		return "Object"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// Field is one named member of an Object.
type Field struct {
	Name  string
	Value any
}

// Dumpable lets a type list the fields it is dumped with instead of having
// its exported struct fields read by reflection.
type Dumpable interface {
	DumpFields() []Field
}

var (
	dumpableType = reflect.TypeOf((*Dumpable)(nil)).Elem()
	stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
)

// ShapeOf returns the shape v is printed as. Pointers and interfaces are
// classified by what they point to.
func ShapeOf(v any) Shape {
	return shapeOf(reflect.ValueOf(v))
}

func shapeOf(rv reflect.Value) Shape {
	for {
		if !rv.IsValid() {
			return Null
		}

		if rv.Type().Implements(dumpableType) && !isNilValue(rv) {
			return Object
		}

		switch rv.Kind() {
		case reflect.Pointer, reflect.Interface:
			if rv.IsNil() {
				return Null
			}
			rv = rv.Elem()
		case reflect.Slice, reflect.Map:
			if rv.IsNil() {
				return Null
			}
			return Collection
		case reflect.Array:
			return Collection
		case reflect.Struct:
			if opaqueStruct(rv.Type()) {
				return Primitive
			}
			return Object
		default:
			return Primitive
		}
	}
}

// opaqueStruct reports whether a struct is better printed through its
// String or Error method, as with time.Time.
func opaqueStruct(t reflect.Type) bool {
	if exportedFieldCount(t) > 0 {
		return false
	}
	return t.Implements(stringerType) || t.Implements(errorType) ||
		reflect.PointerTo(t).Implements(stringerType) || reflect.PointerTo(t).Implements(errorType)
}

func exportedFieldCount(t reflect.Type) int {
	n := 0
	for i := range t.NumField() {
		if t.Field(i).IsExported() {
			n++
		}
	}
	return n
}

func isNilValue(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
