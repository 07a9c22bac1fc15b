package goconstruct

import js "github.com/reoring/goconstruct/jsonschema"

// Omittable is implemented by constructs whose build input may be absent
// from an enclosing Struct (constants, computed values, sentinels). The
// Struct then builds them from nil instead of reporting a missing value.
type Omittable interface {
	Omittable() bool
}

// Static is implemented by constructs whose value is known without data.
// Struct.Sizeof binds these values so later members can size themselves
// from them.
type Static interface {
	StaticValue() (any, bool)
}

// Unwrapper exposes the child of a single-child wrapper.
type Unwrapper interface {
	Unwrap() Construct
}

// FieldNamer is implemented by constructs that produce Containers with a
// statically known set of field names.
type FieldNamer interface {
	FieldNames() []string
}

// Describer projects the decoded value of a construct into JSON Schema.
type Describer interface {
	JSONSchema() (*js.Schema, error)
}

// Codec performs a bidirectional transformation between a wire value A and
// a decoded value B.
type Codec[A, B any] interface {
	Decode(a A) (B, error)
	Encode(b B) (A, error)
}

// FieldNamesOf returns the field names con produces, looking through
// wrappers. ok is false when they are not statically known.
func FieldNamesOf(con Construct) ([]string, bool) {
	for con != nil {
		if fn, ok := con.(FieldNamer); ok {
			return fn.FieldNames(), true
		}
		u, ok := con.(Unwrapper)
		if !ok {
			return nil, false
		}
		con = u.Unwrap()
	}
	return nil, false
}

// IsOmittable reports whether con may be built from an absent value.
func IsOmittable(con Construct) bool {
	o, ok := con.(Omittable)
	return ok && o.Omittable()
}
