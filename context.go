package goconstruct

// ParentKey is the context key that refers to the enclosing scope.
const ParentKey = "_"

// Context is one scope of values produced during a single parse or build
// traversal. Struct scopes are keyed by field name (string), Sequence
// scopes by position (int). Each aggregate invocation gets a fresh child
// scope; a scope never writes into its parent.
//
// A nil *Context is a valid empty root scope.
type Context struct {
	parent *Context
	keys   []any
	vals   map[any]any
}

// NewContext returns a root scope pre-populated with values, for callers
// of Sizeof whose schema reads lengths from the context.
func NewContext(values map[string]any) *Context {
	c := &Context{}
	for k, v := range values {
		c.Bind(k, v)
	}
	return c
}

// Child returns a new empty scope whose parent is c.
func (c *Context) Child() *Context { return &Context{parent: c} }

// Parent returns the enclosing scope, or nil at the root.
func (c *Context) Parent() *Context {
	if c == nil {
		return nil
	}
	return c.parent
}

// Bind records v under key in this scope. Only aggregates should bind;
// keys are strings (Struct) or ints (Sequence).
func (c *Context) Bind(key, v any) {
	if c.vals == nil {
		c.vals = make(map[any]any)
	}
	if _, ok := c.vals[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.vals[key] = v
}

// Get returns the value bound to key in this scope only. ParentKey returns
// the parent scope itself.
func (c *Context) Get(key any) (any, bool) {
	if c == nil {
		return nil, false
	}
	if key == ParentKey {
		if c.parent == nil {
			return nil, false
		}
		return c.parent, true
	}
	v, ok := c.vals[key]
	return v, ok
}

// Lookup walks path from this scope. Each ParentKey segment moves one scope
// up; other segments index into scopes, Containers, maps and slices.
//
//	c.Lookup("_", "header", "len")
func (c *Context) Lookup(path ...any) (any, bool) {
	var cur any = c
	for _, seg := range path {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func step(cur, seg any) (any, bool) {
	switch v := cur.(type) {
	case *Context:
		return v.Get(seg)
	case *Container:
		name, ok := seg.(string)
		if !ok {
			return nil, false
		}
		return v.Get(name)
	case map[string]any:
		name, ok := seg.(string)
		if !ok {
			return nil, false
		}
		out, ok := v[name]
		return out, ok
	}
	i, ok := seg.(int)
	if !ok {
		return nil, false
	}
	items, ok := ListOf(cur)
	if !ok || i < 0 || i >= len(items) {
		return nil, false
	}
	return items[i], true
}

// Keys returns the keys bound in this scope in binding order.
func (c *Context) Keys() []any {
	if c == nil {
		return nil
	}
	return append([]any(nil), c.keys...)
}
