// Package goconstruct declares binary layouts as trees of immutable
// constructs. One tree yields a parser (bytes to values), a builder (values
// to bytes) and a static size calculator.
//
//   - Leaves (raw bytes, fixed-width numbers) and wrappers live under dsl/.
//   - Aggregates (Struct, Sequence, Array) thread a Context through the
//     traversal so later members can depend on earlier ones.
//   - Bidirectional transforms live under codec/ and plug in via Adapter.
//   - Every failure is an *Error carrying a code, a JSON Pointer path and,
//     when known, the byte offset.
//
// Typical usage:
//
//	frame := dsl.Struct().
//		Field("length", dsl.Uint16BE()).
//		Field("payload", dsl.Raw(goconstruct.IntAt("length"))).
//		MustBuild()
//
//	v, err := goconstruct.Parse(frame, data)
//	out, err := goconstruct.Build(frame, v)
//	n, err := goconstruct.Sizeof(frame, nil) // ErrIndeterminate here
package goconstruct
