package dump

import (
	"fmt"
	"reflect"
	"strings"
)

// TypeOf returns the descriptor of T. See Type.
func TypeOf[T any]() string {
	return Type(reflect.TypeOf((*T)(nil)).Elem())
}

// Type returns a descriptor of t: its name and kind, the package it is
// declared in, its exported fields with their tags, and its exported
// methods. A nil t returns "<nil type>".
func Type(t reflect.Type) string {
	if t == nil {
		return "<nil type>"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s (%s)\n", t, describeKind(t)))

	named := t
	for named.Kind() == reflect.Pointer && named.Name() == "" {
		named = named.Elem()
	}
	if pkg := named.PkgPath(); pkg != "" {
		b.WriteString(fmt.Sprintf("  package: %s\n", pkg))
	}

	if named.Kind() == reflect.Struct {
		writeTypeFields(&b, named)
	}

	writeTypeMethods(&b, t)

	return strings.TrimSuffix(b.String(), "\n")
}

func describeKind(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Pointer:
		return "pointer to " + describeKind(t.Elem())
	case reflect.Slice:
		return "slice of " + t.Elem().String()
	case reflect.Array:
		return fmt.Sprintf("array of %d %s", t.Len(), t.Elem())
	case reflect.Map:
		return fmt.Sprintf("map from %s to %s", t.Key(), t.Elem())
	case reflect.Chan:
		return "channel of " + t.Elem().String()
	default:
		return t.Kind().String()
	}
}

func writeTypeFields(b *strings.Builder, t reflect.Type) {
	var unexported int
	var lines []string

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			unexported++
			continue
		}

		line := f.Name + " " + f.Type.String()
		if f.Anonymous {
			line = f.Type.String() + " (embedded)"
		}
		if f.Tag != "" {
			line += " `" + string(f.Tag) + "`"
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 && unexported == 0 {
		return
	}

	b.WriteString("  fields:\n")
	for _, line := range lines {
		b.WriteString("    " + line + "\n")
	}
	if unexported > 0 {
		b.WriteString(fmt.Sprintf("    (%d unexported)\n", unexported))
	}
}

func writeTypeMethods(b *strings.Builder, t reflect.Type) {
	if t.NumMethod() == 0 {
		return
	}

	b.WriteString("  methods:\n")
	for i := range t.NumMethod() {
		m := t.Method(i)
		b.WriteString("    " + m.Name + signature(m.Type, t.Kind() != reflect.Interface) + "\n")
	}
}

// signature formats a method type, dropping the receiver of concrete methods.
func signature(ft reflect.Type, hasReceiver bool) string {
	start := 0
	if hasReceiver {
		start = 1
	}

	params := make([]string, 0, ft.NumIn())
	for i := start; i < ft.NumIn(); i++ {
		p := ft.In(i).String()
		if ft.IsVariadic() && i == ft.NumIn()-1 {
			p = "..." + ft.In(i).Elem().String()
		}
		params = append(params, p)
	}

	results := make([]string, 0, ft.NumOut())
	for i := range ft.NumOut() {
		results = append(results, ft.Out(i).String())
	}

	s := "(" + strings.Join(params, ", ") + ")"
	switch len(results) {
	case 0:
	case 1:
		s += " " + results[0]
	default:
		s += " (" + strings.Join(results, ", ") + ")"
	}
	return s
}
