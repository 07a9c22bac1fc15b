// Package dsl provides the constructors for goconstruct schemas.
//
// Overview
//   - Leaves: Raw/Bytes, numeric leaves (Int8, Uint16BE, Float64LE, ...) and
//     the sentinels Tail, Terminator, Pass and Value.
//   - Aggregates: Struct()/StructOf (named members, embedding), Sequence
//     (positional), Array/ArrayN (fixed or derived count).
//   - Dispatch: Switch, IfThenElse, If.
//   - Adapters: Const, LengthValue, PrefixedRaw, PrefixedArray, Encoded,
//     Base64, Validate, OneOf, NoneOf, Adapt, plus Compressed, CBOR and
//     Checksum backed by codec/.
//   - JSONSchemaOf describes the decoded value of any tree.
//
// Context-dependent members read earlier values through Params:
//
//	frame := dsl.Struct().
//		Field("kind", dsl.Uint8()).
//		Field("len", dsl.Uint16BE()).
//		Field("body", dsl.Switch(goconstruct.At("kind"), dsl.Cases{
//			1: dsl.Raw(goconstruct.IntAt("len")),
//			2: dsl.Encoded(dsl.Raw(goconstruct.IntAt("len")), "utf-8"),
//		}, nil)).
//		MustBuild()
//
// File layout (roles)
//   - leaf.go: Raw, numeric leaves, sentinels.
//   - struct.go: Struct builder and StructCon.
//   - sequence.go / array.go: positional aggregates.
//   - switch.go: Switch and the boolean sugar.
//   - adapters.go: value adapters and length prefixing.
//   - domain.go: compression, CBOR and checksum constructs.
//   - jsonschema.go: JSONSchemaOf.
package dsl
