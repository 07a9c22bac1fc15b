package loader

import (
	"strconv"

	goconstruct "github.com/reoring/goconstruct"
	"github.com/reoring/goconstruct/codec"
	"github.com/reoring/goconstruct/dsl"
)

// builtin leaves addressable by a bare name
var builtins = func() map[string]goconstruct.Construct {
	out := map[string]goconstruct.Construct{
		"tail":       dsl.Tail(),
		"terminator": dsl.Terminator(),
		"pass":       dsl.Pass(),
	}
	for name, n := range dsl.Numerics() {
		out[name] = n
	}
	return out
}()

type compiler struct {
	nodes  map[string]any
	paths  map[string]string
	built  map[string]goconstruct.Construct
	active map[string]bool
}

func newCompiler(defs *goconstruct.Container, extra map[string]goconstruct.Construct) (*compiler, error) {
	c := &compiler{
		nodes:  map[string]any{},
		paths:  map[string]string{},
		built:  map[string]goconstruct.Construct{},
		active: map[string]bool{},
	}
	for name, con := range extra {
		if con == nil {
			return nil, schemaErr("", "predefined %q has no construct", name)
		}
		c.built[name] = con
	}
	for _, name := range defs.Keys() {
		path := "/definitions/" + escape(name)
		if _, ok := builtins[name]; ok {
			return nil, schemaErr(path, "definition %q shadows a builtin", name)
		}
		if _, ok := c.built[name]; ok {
			return nil, schemaErr(path, "definition %q shadows a predefined construct", name)
		}
		n, _ := defs.Get(name)
		c.nodes[name] = n
		c.paths[name] = path
	}
	return c, nil
}

// resolve compiles a definition once. A definition that reaches itself
// while being compiled is rejected.
func (c *compiler) resolve(name, from string) (goconstruct.Construct, error) {
	if con, ok := builtins[name]; ok {
		return con, nil
	}
	if con, ok := c.built[name]; ok {
		return con, nil
	}
	n, ok := c.nodes[name]
	if !ok {
		return nil, schemaErr(from, "unknown type %q", name)
	}
	if c.active[name] {
		return nil, schemaErr(from, "recursive definition %q", name)
	}
	c.active[name] = true
	defer delete(c.active, name)
	con, err := c.node(n, c.paths[name])
	if err != nil {
		return nil, err
	}
	c.built[name] = con
	return con, nil
}

func (c *compiler) node(n any, path string) (goconstruct.Construct, error) {
	switch v := n.(type) {
	case string:
		return c.resolve(v, path)
	case *goconstruct.Container:
		if v.Len() != 1 {
			return nil, schemaErr(path, "a type mapping needs exactly one key, found %v", v.Keys())
		}
		kind := v.Keys()[0]
		arg, _ := v.Get(kind)
		build, ok := kinds[kind]
		if !ok {
			return nil, schemaErr(path, "unknown type kind %q", kind)
		}
		return build(c, arg, path+"/"+escape(kind))
	}
	return nil, schemaErr(path, "expected a type name or mapping, found %s", describeNode(n))
}

type kindFunc func(c *compiler, arg any, path string) (goconstruct.Construct, error)

var kinds map[string]kindFunc

func init() {
	kinds = map[string]kindFunc{
		"struct":     (*compiler).structKind,
		"sequence":   (*compiler).sequenceKind,
		"array":      (*compiler).arrayKind,
		"raw":        (*compiler).rawKind,
		"switch":     (*compiler).switchKind,
		"if":         (*compiler).ifKind,
		"const":      (*compiler).constKind,
		"value":      (*compiler).valueKind,
		"prefixed":   (*compiler).prefixedKind,
		"string":     (*compiler).stringKind,
		"base64":     (*compiler).base64Kind,
		"oneof":      (*compiler).oneofKind,
		"noneof":     (*compiler).noneofKind,
		"compressed": (*compiler).compressedKind,
		"cbor":       (*compiler).cborKind,
		"checksum":   (*compiler).checksumKind,
		"ref":        (*compiler).refKind,
	}
}

func (c *compiler) structKind(arg any, path string) (goconstruct.Construct, error) {
	items, err := list(arg, path)
	if err != nil {
		return nil, err
	}
	members := make([]dsl.Member, 0, len(items))
	for i, item := range items {
		ip := path + "/" + strconv.Itoa(i)
		f, err := fields(item, ip, []string{"type"}, "name", "embed")
		if err != nil {
			return nil, err
		}
		name := ""
		if raw, ok := f["name"]; ok {
			if name, ok = raw.(string); !ok {
				return nil, schemaErr(ip+"/name", "expected string, found %s", describeNode(raw))
			}
		}
		con, err := c.node(f["type"], ip+"/type")
		if err != nil {
			return nil, err
		}
		m := dsl.Named(name, con)
		if raw, ok := f["embed"]; ok {
			embed, ok := raw.(bool)
			if !ok {
				return nil, schemaErr(ip+"/embed", "expected boolean, found %s", describeNode(raw))
			}
			m.Embed = embed
		}
		members = append(members, m)
	}
	s, err := dsl.StructOf(members...)
	if err != nil {
		return nil, schemaCause(path, err)
	}
	return s, nil
}

func (c *compiler) sequenceKind(arg any, path string) (goconstruct.Construct, error) {
	items, err := list(arg, path)
	if err != nil {
		return nil, err
	}
	members := make([]goconstruct.Construct, len(items))
	for i, item := range items {
		if members[i], err = c.node(item, path+"/"+strconv.Itoa(i)); err != nil {
			return nil, err
		}
	}
	s, err := dsl.SequenceOf(members...)
	if err != nil {
		return nil, schemaCause(path, err)
	}
	return s, nil
}

func (c *compiler) arrayKind(arg any, path string) (goconstruct.Construct, error) {
	f, err := fields(arg, path, []string{"count", "of"})
	if err != nil {
		return nil, err
	}
	count, err := intParam(f["count"], path+"/count")
	if err != nil {
		return nil, err
	}
	of, err := c.node(f["of"], path+"/of")
	if err != nil {
		return nil, err
	}
	return dsl.Array(count, of), nil
}

// rawKind accepts {length: n} or the bare length.
func (c *compiler) rawKind(arg any, path string) (goconstruct.Construct, error) {
	lp := path
	if _, ok := arg.(*goconstruct.Container); ok {
		f, err := fields(arg, path, []string{"length"})
		if err != nil {
			return nil, err
		}
		arg, lp = f["length"], path+"/length"
	}
	length, err := intParam(arg, lp)
	if err != nil {
		return nil, err
	}
	return dsl.Raw(length), nil
}

func (c *compiler) switchKind(arg any, path string) (goconstruct.Construct, error) {
	f, err := fields(arg, path, []string{"on", "cases"}, "default")
	if err != nil {
		return nil, err
	}
	key, err := refParam(f["on"], path+"/on")
	if err != nil {
		return nil, err
	}
	cm, ok := f["cases"].(*goconstruct.Container)
	if !ok {
		return nil, schemaErr(path+"/cases", "expected mapping, found %s", describeNode(f["cases"]))
	}
	cases := dsl.Cases{}
	for _, k := range cm.Keys() {
		n, _ := cm.Get(k)
		con, err := c.node(n, path+"/cases/"+escape(k))
		if err != nil {
			return nil, err
		}
		cases[caseKey(k)] = con
	}
	var def goconstruct.Construct
	if n, ok := f["default"]; ok {
		if def, err = c.node(n, path+"/default"); err != nil {
			return nil, err
		}
	}
	sc, err := dsl.SwitchE(key, cases, def)
	if err != nil {
		return nil, schemaCause(path+"/cases", err)
	}
	return sc, nil
}

// ifKind selects then when the value at on equals equals, or, without
// equals, when it is truthy. A missing else yields null.
func (c *compiler) ifKind(arg any, path string) (goconstruct.Construct, error) {
	f, err := fields(arg, path, []string{"on", "then"}, "equals", "else")
	if err != nil {
		return nil, err
	}
	key, err := refParam(f["on"], path+"/on")
	if err != nil {
		return nil, err
	}
	pred := truthy(key)
	if want, ok := f["equals"]; ok {
		pred = dsl.Equals(key, want)
	}
	then, err := c.node(f["then"], path+"/then")
	if err != nil {
		return nil, err
	}
	n, ok := f["else"]
	if !ok {
		return dsl.If(pred, then, nil), nil
	}
	els, err := c.node(n, path+"/else")
	if err != nil {
		return nil, err
	}
	return dsl.IfThenElse(pred, then, els), nil
}

func (c *compiler) constKind(arg any, path string) (goconstruct.Construct, error) {
	f, err := fields(arg, path, []string{"type", "value"})
	if err != nil {
		return nil, err
	}
	sub, err := c.node(f["type"], path+"/type")
	if err != nil {
		return nil, err
	}
	return dsl.Const(sub, f["value"]), nil
}

// valueKind accepts a literal or {from: path}.
func (c *compiler) valueKind(arg any, path string) (goconstruct.Construct, error) {
	if m, ok := arg.(*goconstruct.Container); ok && m.Has("from") {
		f, err := fields(arg, path, []string{"from"})
		if err != nil {
			return nil, err
		}
		ref, err := refParam(f["from"], path+"/from")
		if err != nil {
			return nil, err
		}
		return dsl.Value(ref), nil
	}
	return dsl.Value(goconstruct.Fixed(arg)), nil
}

func (c *compiler) prefixedKind(arg any, path string) (goconstruct.Construct, error) {
	f, err := fields(arg, path, []string{"length"}, "of")
	if err != nil {
		return nil, err
	}
	length, err := c.node(f["length"], path+"/length")
	if err != nil {
		return nil, err
	}
	n, ok := f["of"]
	if !ok {
		return dsl.PrefixedRaw(length), nil
	}
	of, err := c.node(n, path+"/of")
	if err != nil {
		return nil, err
	}
	return dsl.PrefixedArray(length, of), nil
}

func (c *compiler) stringKind(arg any, path string) (goconstruct.Construct, error) {
	f, err := fields(arg, path, []string{"type"}, "encoding")
	if err != nil {
		return nil, err
	}
	sub, err := c.node(f["type"], path+"/type")
	if err != nil {
		return nil, err
	}
	enc := "utf-8"
	if raw, ok := f["encoding"]; ok {
		if enc, ok = raw.(string); !ok {
			return nil, schemaErr(path+"/encoding", "expected string, found %s", describeNode(raw))
		}
	}
	ec, err := dsl.EncodedE(sub, enc)
	if err != nil {
		return nil, schemaCause(path+"/encoding", err)
	}
	return ec, nil
}

func (c *compiler) base64Kind(arg any, path string) (goconstruct.Construct, error) {
	sub, err := c.typeOnly(arg, path)
	if err != nil {
		return nil, err
	}
	return dsl.Base64(sub), nil
}

func (c *compiler) cborKind(arg any, path string) (goconstruct.Construct, error) {
	sub, err := c.typeOnly(arg, path)
	if err != nil {
		return nil, err
	}
	return dsl.CBOR(sub), nil
}

func (c *compiler) oneofKind(arg any, path string) (goconstruct.Construct, error) {
	sub, values, err := c.typeValues(arg, path)
	if err != nil {
		return nil, err
	}
	return dsl.OneOf(sub, values...), nil
}

func (c *compiler) noneofKind(arg any, path string) (goconstruct.Construct, error) {
	sub, values, err := c.typeValues(arg, path)
	if err != nil {
		return nil, err
	}
	return dsl.NoneOf(sub, values...), nil
}

func (c *compiler) compressedKind(arg any, path string) (goconstruct.Construct, error) {
	f, err := fields(arg, path, []string{"type", "algorithm"})
	if err != nil {
		return nil, err
	}
	sub, err := c.node(f["type"], path+"/type")
	if err != nil {
		return nil, err
	}
	name, _ := f["algorithm"].(string)
	algo, err := codec.ParseAlgorithm(name)
	if err != nil {
		return nil, schemaCause(path+"/algorithm", err)
	}
	cc, err := dsl.CompressedE(sub, algo)
	if err != nil {
		return nil, schemaCause(path, err)
	}
	return cc, nil
}

func (c *compiler) checksumKind(arg any, path string) (goconstruct.Construct, error) {
	f, err := fields(arg, path, []string{"type", "algorithm", "over"})
	if err != nil {
		return nil, err
	}
	sum, err := c.node(f["type"], path+"/type")
	if err != nil {
		return nil, err
	}
	name, _ := f["algorithm"].(string)
	algo, err := codec.ParseDigest(name)
	if err != nil {
		return nil, schemaCause(path+"/algorithm", err)
	}
	over, ok := f["over"].(string)
	if !ok || over == "" {
		return nil, schemaErr(path+"/over", "expected a context path, found %s", describeNode(f["over"]))
	}
	return dsl.Checksum(sum, algo, dsl.BytesAt(goconstruct.ParsePath(over)...)), nil
}

func (c *compiler) refKind(arg any, path string) (goconstruct.Construct, error) {
	name, ok := arg.(string)
	if !ok {
		return nil, schemaErr(path, "expected a definition name, found %s", describeNode(arg))
	}
	return c.resolve(name, path)
}

func (c *compiler) typeOnly(arg any, path string) (goconstruct.Construct, error) {
	f, err := fields(arg, path, []string{"type"})
	if err != nil {
		return nil, err
	}
	return c.node(f["type"], path+"/type")
}

func (c *compiler) typeValues(arg any, path string) (goconstruct.Construct, []any, error) {
	f, err := fields(arg, path, []string{"type", "values"})
	if err != nil {
		return nil, nil, err
	}
	sub, err := c.node(f["type"], path+"/type")
	if err != nil {
		return nil, nil, err
	}
	values, err := list(f["values"], path+"/values")
	if err != nil {
		return nil, nil, err
	}
	return sub, values, nil
}

// fields checks that arg is a mapping holding every required key and no
// keys outside required and optional.
func fields(arg any, path string, required []string, optional ...string) (map[string]any, error) {
	m, ok := arg.(*goconstruct.Container)
	if !ok {
		return nil, schemaErr(path, "expected mapping, found %s", describeNode(arg))
	}
	allowed := map[string]bool{}
	for _, k := range required {
		if !m.Has(k) {
			return nil, schemaErr(path, "missing key %q", k)
		}
		allowed[k] = true
	}
	for _, k := range optional {
		allowed[k] = true
	}
	out := make(map[string]any, m.Len())
	for _, k := range m.Keys() {
		if !allowed[k] {
			return nil, schemaErr(path+"/"+escape(k), "unknown key %q", k)
		}
		out[k], _ = m.Get(k)
	}
	return out, nil
}

func list(arg any, path string) ([]any, error) {
	items, ok := arg.([]any)
	if !ok {
		return nil, schemaErr(path, "expected list, found %s", describeNode(arg))
	}
	return items, nil
}

// intParam reads a length or count: a non-negative integer or a context
// path.
func intParam(v any, path string) (goconstruct.Param[int], error) {
	if s, ok := v.(string); ok && s != "" {
		return goconstruct.IntAt(goconstruct.ParsePath(s)...), nil
	}
	n, ok := goconstruct.ToInt(v)
	if !ok {
		return goconstruct.Param[int]{}, schemaErr(path, "expected a non-negative integer or context path, found %s", describeNode(v))
	}
	return goconstruct.Fixed(n), nil
}

func refParam(v any, path string) (goconstruct.Param[any], error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return goconstruct.Param[any]{}, schemaErr(path, "expected a context path, found %s", describeNode(v))
	}
	return goconstruct.At(goconstruct.ParsePath(s)...), nil
}

// caseKey converts a mapping key: integers and booleans match decoded
// values of those kinds, anything else stays a string.
func caseKey(k string) any {
	if n, err := strconv.ParseInt(k, 0, 64); err == nil {
		return n
	}
	if u, err := strconv.ParseUint(k, 0, 64); err == nil {
		return u
	}
	switch k {
	case "true":
		return true
	case "false":
		return false
	}
	return k
}

func truthy(key goconstruct.Param[any]) goconstruct.Param[bool] {
	return goconstruct.Derived(func(c *goconstruct.Context) (bool, error) {
		v, err := key.Eval(c)
		if err != nil {
			return false, err
		}
		switch x := v.(type) {
		case nil:
			return false, nil
		case bool:
			return x, nil
		case string:
			return x != "", nil
		}
		if f, ok := goconstruct.ToFloat64(v); ok {
			return f != 0, nil
		}
		if n, ok := goconstruct.LenOf(v); ok {
			return n > 0, nil
		}
		return true, nil
	})
}
