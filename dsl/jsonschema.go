package dsl

import (
	"fmt"
	"math"

	goconstruct "github.com/reoring/goconstruct"
	js "github.com/reoring/goconstruct/jsonschema"
)

// JSONSchemaOf describes the decoded value produced by con. Constructs
// that implement goconstruct.Describer describe themselves; pass-through
// wrappers describe their child; anything else yields the empty schema.
func JSONSchemaOf(con goconstruct.Construct) (*js.Schema, error) {
	switch x := con.(type) {
	case nil:
		return nil, schemaError("nil construct")
	case goconstruct.Describer:
		return x.JSONSchema()
	case *goconstruct.Adapter:
		return js.Any(), nil
	case goconstruct.Unwrapper:
		return JSONSchemaOf(x.Unwrap())
	}
	return js.Any(), nil
}

func bytesSchema() *js.Schema {
	return &js.Schema{Type: "string", ContentEncoding: "base64"}
}

func (rc *RawCon) JSONSchema() (*js.Schema, error) {
	s := bytesSchema()
	if rc.Length.IsFixed() {
		n, _ := rc.Length.Eval(nil)
		s.Description = fmt.Sprintf("%d bytes", n)
	}
	return s, nil
}

func (tailCon) JSONSchema() (*js.Schema, error)       { return bytesSchema(), nil }
func (terminatorCon) JSONSchema() (*js.Schema, error) { return &js.Schema{Type: "null"}, nil }
func (passCon) JSONSchema() (*js.Schema, error)       { return &js.Schema{Type: "null"}, nil }

func (n *NumericCon) JSONSchema() (*js.Schema, error) {
	if n.kind == float {
		return &js.Schema{Type: "number", Format: n.name}, nil
	}
	s := &js.Schema{Type: "integer", Format: n.name}
	bits := n.width * 8
	switch n.kind {
	case signed:
		s.Minimum = js.Ptr(-math.Pow(2, float64(bits-1)))
		s.Maximum = js.Ptr(math.Pow(2, float64(bits-1)) - 1)
	default:
		s.Minimum = js.Ptr(0.0)
		s.Maximum = js.Ptr(math.Pow(2, float64(bits)) - 1)
	}
	return s, nil
}

func (vc *ValueCon) JSONSchema() (*js.Schema, error) {
	if v, ok := vc.StaticValue(); ok {
		return &js.Schema{Const: v}, nil
	}
	return js.Any(), nil
}

func (s *StructCon) JSONSchema() (*js.Schema, error) {
	out := &js.Schema{Type: "object", Properties: map[string]*js.Schema{}, AdditionalProperties: false}
	add := func(name string, ps *js.Schema) {
		if _, ok := out.Properties[name]; !ok {
			out.PropertyOrder = append(out.PropertyOrder, name)
			out.Required = append(out.Required, name)
		}
		out.Properties[name] = ps
	}
	for _, m := range s.members {
		ms, err := JSONSchemaOf(m.Con)
		if err != nil {
			return nil, goconstruct.WithPath(err, m.Name)
		}
		switch {
		case m.Embed:
			for _, k := range ms.PropertyOrder {
				add(k, ms.Properties[k])
			}
		case m.Name != "":
			add(m.Name, ms)
		}
	}
	return out, nil
}

func (s *SequenceCon) JSONSchema() (*js.Schema, error) {
	out := &js.Schema{Type: "array", MinItems: js.Ptr(len(s.members)), MaxItems: js.Ptr(len(s.members))}
	for i, m := range s.members {
		ms, err := JSONSchemaOf(m)
		if err != nil {
			return nil, goconstruct.WithPath(err, i)
		}
		out.PrefixItems = append(out.PrefixItems, ms)
	}
	return out, nil
}

func (a *ArrayCon) JSONSchema() (*js.Schema, error) {
	items, err := JSONSchemaOf(a.Sub)
	if err != nil {
		return nil, err
	}
	out := &js.Schema{Type: "array", Items: items}
	if a.Count.IsFixed() {
		n, _ := a.Count.Eval(nil)
		out.MinItems, out.MaxItems = js.Ptr(n), js.Ptr(n)
	}
	return out, nil
}

func (s *SwitchCon) JSONSchema() (*js.Schema, error) {
	keys, cons, def := s.Branches()
	out := &js.Schema{}
	for i, con := range cons {
		cs, err := JSONSchemaOf(con)
		if err != nil {
			return nil, goconstruct.WithPath(err, fmt.Sprint(keys[i]))
		}
		out.OneOf = append(out.OneOf, cs)
	}
	if def != nil {
		ds, err := JSONSchemaOf(def)
		if err != nil {
			return nil, err
		}
		out.OneOf = append(out.OneOf, ds)
	}
	return out, nil
}

func (cs *ChecksumCon) JSONSchema() (*js.Schema, error) {
	s, err := JSONSchemaOf(cs.Sum)
	if err != nil {
		return nil, err
	}
	s.Description = string(cs.Algorithm) + " checksum"
	return s, nil
}
