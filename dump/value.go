package dump

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/luci/go-render/render"
)

// Options controls Value output.
type Options struct {
	// MaxDepth is the deepest nesting printed. Deeper collections and
	// objects print as "...". Zero or less means DefaultMaxDepth.
	MaxDepth int

	// Indent is the string repeated once per nesting level.
	// Empty means two spaces.
	Indent string
}

// DefaultMaxDepth is the nesting limit used when Options.MaxDepth is unset.
const DefaultMaxDepth = 8

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.Indent == "" {
		o.Indent = "  "
	}
	return o
}

// Value returns a multi-line dump of v. It never returns an empty string
// and never panics; a nil v dumps as "<nil>".
func Value(v any) string {
	return ValueWith(v, Options{})
}

// ValueWith is Value with explicit options.
func ValueWith(v any, opts Options) (out string) {
	p := &printer{
		opts:     opts.withDefaults(),
		visiting: make(map[visit]bool),
	}

	defer func() {
		if r := recover(); r != nil {
			p.b.WriteString(fmt.Sprintf("<dump failed: %v>", r))
			out = p.b.String()
		}
	}()

	p.write(reflect.ValueOf(v), 0)
	return p.b.String()
}

// Compact returns v rendered on a single line in Go-like syntax.
func Compact(v any) string {
	return render.Render(v)
}

var verboseConfig = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Verbose returns a fully annotated dump of v including unexported fields
// and concrete types.
func Verbose(v any) string {
	return verboseConfig.Sdump(v)
}

type printer struct {
	b        strings.Builder
	opts     Options
	visiting map[visit]bool
}

// visit identifies a pointer or map being printed. The type is part of the
// key because a struct and its first field share an address.
type visit struct {
	addr uintptr
	typ  reflect.Type
}

func (p *printer) indent(depth int) {
	p.b.WriteString(strings.Repeat(p.opts.Indent, depth))
}

func (p *printer) write(rv reflect.Value, depth int) {
	if !rv.IsValid() {
		p.b.WriteString("<nil>")
		return
	}

	if fields, ok := dumpFields(rv); ok {
		p.writeObject(rv.Type().String(), fields, depth)
		return
	}

	switch rv.Kind() {
	case reflect.Pointer:
		p.writePointer(rv, depth)
	case reflect.Interface:
		if rv.IsNil() {
			p.b.WriteString("<nil>")
			return
		}
		p.write(rv.Elem(), depth)
	case reflect.String:
		p.b.WriteString(strconv.Quote(rv.String()))
	case reflect.Slice:
		if rv.IsNil() {
			p.b.WriteString("<nil>")
			return
		}
		p.writeList(rv, depth)
	case reflect.Array:
		p.writeList(rv, depth)
	case reflect.Map:
		p.writeMap(rv, depth)
	case reflect.Struct:
		p.writeStruct(rv, depth)
	case reflect.Func, reflect.Chan:
		if rv.IsNil() {
			p.b.WriteString("<nil>")
			return
		}
		p.b.WriteString("<" + rv.Type().String() + ">")
	default:
		p.b.WriteString(fmt.Sprint(rv))
	}
}

func (p *printer) writePointer(rv reflect.Value, depth int) {
	if rv.IsNil() {
		p.b.WriteString("<nil>")
		return
	}

	v := visit{addr: rv.Pointer(), typ: rv.Type()}
	if p.visiting[v] {
		p.b.WriteString("<cycle>")
		return
	}

	p.visiting[v] = true
	defer delete(p.visiting, v)

	elem := rv.Elem()
	if elem.Kind() == reflect.Struct && opaqueStruct(elem.Type()) && rv.CanInterface() {
		p.b.WriteString(fmt.Sprint(rv.Interface()))
		return
	}

	if s := shapeOf(elem); s == Object || s == Collection {
		p.b.WriteString("&")
	}
	p.write(elem, depth)
}

func (p *printer) writeList(rv reflect.Value, depth int) {
	header := fmt.Sprintf("%s (len=%d)", rv.Type(), rv.Len())
	if rv.Len() == 0 {
		p.b.WriteString(header + " []")
		return
	}
	if depth >= p.opts.MaxDepth {
		p.b.WriteString(header + " [...]")
		return
	}

	p.b.WriteString(header + " [\n")
	for i := range rv.Len() {
		p.indent(depth + 1)
		p.b.WriteString(strconv.Itoa(i) + ": ")
		p.write(rv.Index(i), depth+1)
		p.b.WriteString("\n")
	}
	p.indent(depth)
	p.b.WriteString("]")
}

func (p *printer) writeMap(rv reflect.Value, depth int) {
	if rv.IsNil() {
		p.b.WriteString("<nil>")
		return
	}

	header := fmt.Sprintf("%s (len=%d)", rv.Type(), rv.Len())
	if rv.Len() == 0 {
		p.b.WriteString(header + " {}")
		return
	}

	v := visit{addr: rv.Pointer(), typ: rv.Type()}
	if p.visiting[v] {
		p.b.WriteString("<cycle>")
		return
	}
	if depth >= p.opts.MaxDepth {
		p.b.WriteString(header + " {...}")
		return
	}

	p.visiting[v] = true
	defer delete(p.visiting, v)

	type entry struct {
		key   string
		value reflect.Value
	}

	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries = append(entries, entry{key: p.inline(iter.Key()), value: iter.Value()})
	}
	slices.SortFunc(entries, func(a, b entry) int { return strings.Compare(a.key, b.key) })

	p.b.WriteString(header + " {\n")
	for _, e := range entries {
		p.indent(depth + 1)
		p.b.WriteString(e.key + ": ")
		p.write(e.value, depth+1)
		p.b.WriteString("\n")
	}
	p.indent(depth)
	p.b.WriteString("}")
}

func (p *printer) writeStruct(rv reflect.Value, depth int) {
	t := rv.Type()
	if opaqueStruct(t) {
		p.b.WriteString(fmt.Sprint(rv))
		return
	}

	fields := make([]reflect.Value, 0, t.NumField())
	names := make([]string, 0, t.NumField())
	for i := range t.NumField() {
		if f := t.Field(i); f.IsExported() {
			names = append(names, f.Name)
			fields = append(fields, rv.Field(i))
		}
	}

	p.writeFields(t.String(), names, fields, depth)
}

func (p *printer) writeObject(typeName string, fields []Field, depth int) {
	names := make([]string, len(fields))
	values := make([]reflect.Value, len(fields))
	for i, f := range fields {
		names[i] = f.Name
		values[i] = reflect.ValueOf(f.Value)
	}
	p.writeFields(typeName, names, values, depth)
}

func (p *printer) writeFields(typeName string, names []string, values []reflect.Value, depth int) {
	if len(names) == 0 {
		p.b.WriteString(typeName + " {}")
		return
	}
	if depth >= p.opts.MaxDepth {
		p.b.WriteString(typeName + " {...}")
		return
	}

	p.b.WriteString(typeName + " {\n")
	for i, name := range names {
		p.indent(depth + 1)
		p.b.WriteString(name + ": ")
		p.write(values[i], depth+1)
		p.b.WriteString("\n")
	}
	p.indent(depth)
	p.b.WriteString("}")
}

// inline formats a map key on its own, one level deep.
func (p *printer) inline(rv reflect.Value) string {
	sub := &printer{
		opts:     Options{MaxDepth: 1, Indent: p.opts.Indent},
		visiting: make(map[visit]bool),
	}
	sub.write(rv, 0)
	return strings.ReplaceAll(sub.b.String(), "\n", " ")
}

// dumpFields returns the fields of a non-nil Dumpable.
func dumpFields(rv reflect.Value) ([]Field, bool) {
	if !rv.Type().Implements(dumpableType) || isNilValue(rv) || !rv.CanInterface() {
		return nil, false
	}
	if rv.Kind() == reflect.Interface {
		return nil, false
	}

	d, ok := rv.Interface().(Dumpable)
	if !ok {
		return nil, false
	}
	return d.DumpFields(), true
}
