// Package dump formats arbitrary values and type descriptors as readable,
// multi-line diagnostic strings.
//
// Values are visited as one of four shapes: Null, Primitive, Collection
// (slices, arrays and maps) and Object (structs, or any type implementing
// Dumpable). Pointers and interfaces are followed; a pointer already being
// visited prints as <cycle> and nesting beyond Options.MaxDepth prints as ...
//
//	fmt.Println(dump.Value(cfg))
//	fmt.Println(dump.TypeOf[*http.Client]())
//
// The output is meant for people; it is not a serialization format and
// cannot be parsed back. Compact and Verbose offer the one-line and the
// fully annotated alternatives.
package dump
