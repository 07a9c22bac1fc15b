package goconstruct

import (
	"reflect"
	"strings"
)

// ResolveStructKey applies the repository-wide rule to resolve a struct field's
// external key used when a Go struct is handed to Build.
// Priority: construct:"name" > json tag name > field name; "-" disables the field.
func ResolveStructKey(sf reflect.StructField) string {
	if ct := sf.Tag.Get("construct"); ct != "" {
		if i := strings.IndexByte(ct, ','); i >= 0 {
			ct = ct[:i]
		}
		if ct != "" {
			return ct
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		if i := strings.IndexByte(jt, ','); i >= 0 {
			jt = jt[:i]
		}
		if jt != "" {
			return jt
		}
	}
	return sf.Name
}

// IsObject reports whether v can serve as Struct build input.
func IsObject(v any) bool {
	switch v.(type) {
	case *Container, map[string]any:
		return true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Struct
}

// FieldOf returns the value stored under name in a Container, a
// map[string]any, or an exported Go struct field.
func FieldOf(v any, name string) (any, bool) {
	switch o := v.(type) {
	case *Container:
		return o.Get(name)
	case map[string]any:
		x, ok := o[name]
		return x, ok
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		if ResolveStructKey(sf) == name {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}
