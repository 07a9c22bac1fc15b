package goconstruct

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Container is the ordered field-name -> value mapping produced by Struct
// parsing. Keys keep their first insertion position.
type Container struct {
	keys []string
	vals map[string]any
}

// NewContainer returns an empty Container.
func NewContainer() *Container { return &Container{vals: map[string]any{}} }

// ContainerFrom builds a Container from alternating key/value pairs.
//
//	ContainerFrom("len", 3, "data", []byte("abc"))
func ContainerFrom(kv ...any) *Container {
	c := NewContainer()
	for i := 0; i+1 < len(kv); i += 2 {
		c.Set(fmt.Sprint(kv[i]), kv[i+1])
	}
	return c
}

// ContainerFromMap copies m into a Container with keys in sorted order.
// Nested maps are converted too.
func ContainerFromMap(m map[string]any) *Container {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	c := NewContainer()
	for _, k := range keys {
		c.Set(k, fromMapValue(m[k]))
	}
	return c
}

func fromMapValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return ContainerFromMap(x)
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = fromMapValue(x[i])
		}
		return out
	}
	return v
}

func (c *Container) Set(k string, v any) {
	if c.vals == nil {
		c.vals = map[string]any{}
	}
	if _, ok := c.vals[k]; !ok {
		c.keys = append(c.keys, k)
	}
	c.vals[k] = v
}

func (c *Container) Get(k string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.vals[k]
	return v, ok
}

func (c *Container) Has(k string) bool {
	_, ok := c.Get(k)
	return ok
}

// Keys returns the field names in insertion order.
func (c *Container) Keys() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.keys...)
}

func (c *Container) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Equal reports whether both containers hold Equal values under the same
// keys. Order is not compared.
func (c *Container) Equal(o *Container) bool {
	if c.Len() != o.Len() {
		return false
	}
	for _, k := range c.Keys() {
		ov, ok := o.Get(k)
		if !ok {
			return false
		}
		if v, _ := c.Get(k); !Equal(v, ov) {
			return false
		}
	}
	return true
}

// Map converts c (and nested containers) into plain maps, for encoders that
// do not need key order.
func (c *Container) Map() map[string]any {
	out := make(map[string]any, c.Len())
	for _, k := range c.Keys() {
		v, _ := c.Get(k)
		out[k] = toPlain(v)
	}
	return out
}

func toPlain(v any) any {
	switch x := v.(type) {
	case *Container:
		return x.Map()
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = toPlain(x[i])
		}
		return out
	}
	return v
}

// MarshalJSON emits an object with keys in insertion order.
func (c *Container) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := j.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		v, _ := c.Get(k)
		vb, err := j.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("container: field %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping key order. Nested objects become
// Containers, integral numbers int64 (uint64 above that range) and other
// numbers float64.
func (c *Container) UnmarshalJSON(b []byte) error {
	dec := j.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return err
	}
	got, ok := v.(*Container)
	if !ok {
		return fmt.Errorf("container: expected JSON object, got %T", v)
	}
	*c = *got
	return nil
}

// DecodeJSON reads any JSON document with the same conventions as
// UnmarshalJSON.
func DecodeJSON(b []byte) (any, error) {
	dec := j.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("container: trailing data after JSON value")
	}
	return v, nil
}

func decodeJSONValue(dec *j.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			c := NewContainer()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				k, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("container: expected object key, got %v", kt)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				c.Set(k, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return c, nil
		case '[':
			out := []any{}
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				out = append(out, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return out, nil
		}
		return nil, fmt.Errorf("container: unexpected delimiter %v", v)
	case j.Number:
		if i, err := strconv.ParseInt(string(v), 10, 64); err == nil {
			return i, nil
		}
		if u, err := strconv.ParseUint(string(v), 10, 64); err == nil {
			return u, nil
		}
		return strconv.ParseFloat(string(v), 64)
	default:
		// string, bool, nil
		return v, nil
	}
}

// MarshalYAML emits a mapping node with keys in insertion order.
func (c *Container) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range c.Keys() {
		v, _ := c.Get(k)
		kn := &yaml.Node{}
		if err := kn.Encode(k); err != nil {
			return nil, err
		}
		vn := &yaml.Node{}
		if err := vn.Encode(v); err != nil {
			return nil, fmt.Errorf("container: field %q: %w", k, err)
		}
		n.Content = append(n.Content, kn, vn)
	}
	return n, nil
}

// UnmarshalYAML reads a mapping keeping key order.
func (c *Container) UnmarshalYAML(n *yaml.Node) error {
	v, err := DecodeYAMLNode(n)
	if err != nil {
		return err
	}
	got, ok := v.(*Container)
	if !ok {
		return fmt.Errorf("container: expected YAML mapping, got %T", v)
	}
	*c = *got
	return nil
}

// DecodeYAMLNode converts a yaml.v3 node tree into values with mappings as
// Containers.
func DecodeYAMLNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return DecodeYAMLNode(n.Content[0])
	case yaml.AliasNode:
		return DecodeYAMLNode(n.Alias)
	case yaml.MappingNode:
		c := NewContainer()
		for i := 0; i+1 < len(n.Content); i += 2 {
			var k string
			if err := n.Content[i].Decode(&k); err != nil {
				return nil, err
			}
			v, err := DecodeYAMLNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			c.Set(k, v)
		}
		return c, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := DecodeYAMLNode(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Decode projects c onto a Go value (typically a pointer to struct) using
// JSON field naming.
func (c *Container) Decode(out any) error {
	b, err := c.MarshalJSON()
	if err != nil {
		return err
	}
	return j.Unmarshal(b, out)
}
