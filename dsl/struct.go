package dsl

import (
	goconstruct "github.com/reoring/goconstruct"
	"github.com/reoring/goconstruct/cursor"
)

// Member is one field of a Struct. An empty Name makes the member
// anonymous: parsed for its effect on the stream, then discarded, unless
// Embed is set.
type Member struct {
	Name  string
	Con   goconstruct.Construct
	Embed bool
}

// Named returns a named member.
func Named(name string, con goconstruct.Construct) Member { return Member{Name: name, Con: con} }

// Embedded returns a member whose fields are merged into the enclosing
// Struct. name may be empty.
func Embedded(name string, con goconstruct.Construct) Member {
	return Member{Name: name, Con: con, Embed: true}
}

// StructBuilder collects members in declaration order.
type StructBuilder struct {
	members []Member
}

// Struct creates a new struct builder.
func Struct() *StructBuilder { return &StructBuilder{} }

// Field appends a named member.
func (b *StructBuilder) Field(name string, con goconstruct.Construct) *StructBuilder {
	b.members = append(b.members, Named(name, con))
	return b
}

// Embed appends an embedded member whose fields are flattened into the
// result. A non-empty name also binds the whole sub-struct in the context.
func (b *StructBuilder) Embed(name string, con goconstruct.Construct) *StructBuilder {
	b.members = append(b.members, Embedded(name, con))
	return b
}

// Anonymous appends an unnamed member (padding, magic numbers).
func (b *StructBuilder) Anonymous(con goconstruct.Construct) *StructBuilder {
	b.members = append(b.members, Member{Con: con})
	return b
}

// Build validates the members and returns the Struct construct.
func (b *StructBuilder) Build() (*StructCon, error) { return StructOf(b.members...) }

// MustBuild is Build that panics on an invalid definition.
func (b *StructBuilder) MustBuild() *StructCon {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// StructCon is an ordered composition of named, anonymous and embedded
// members. It parses to *goconstruct.Container.
type StructCon struct {
	members []Member
}

// StructOf validates members and returns the Struct construct. Duplicate
// non-empty names and nil constructs are schema errors.
func StructOf(members ...Member) (*StructCon, error) {
	seen := make(map[string]struct{}, len(members))
	for i, m := range members {
		if m.Con == nil {
			e := schemaError("member %d (%q) has no construct", i, m.Name)
			e.Path = "/" + m.Name
			return nil, e
		}
		if m.Name == "" {
			continue
		}
		if _, dup := seen[m.Name]; dup {
			e := schemaError("duplicate member name %q", m.Name)
			e.Path = "/" + m.Name
			return nil, e
		}
		seen[m.Name] = struct{}{}
	}
	return &StructCon{members: append([]Member(nil), members...)}, nil
}

// Members returns a copy of the member list.
func (s *StructCon) Members() []Member { return append([]Member(nil), s.members...) }

// FieldNames returns the keys of the parsed Container in order.
func (s *StructCon) FieldNames() []string {
	var out []string
	for _, m := range s.members {
		switch {
		case m.Embed:
			if names, ok := goconstruct.FieldNamesOf(m.Con); ok {
				out = append(out, names...)
			}
		case m.Name != "":
			out = append(out, m.Name)
		}
	}
	return out
}

func (s *StructCon) ParseStream(r *cursor.Reader, c *goconstruct.Context) (any, error) {
	ctx := c.Child()
	out := goconstruct.NewContainer()
	for _, m := range s.members {
		start := r.Pos()
		v, err := m.Con.ParseStream(r, ctx)
		if err != nil {
			return nil, goconstruct.WithPath(err, m.Name)
		}
		if m.Embed {
			sub, ok := v.(*goconstruct.Container)
			if !ok {
				return nil, goconstruct.WithPath(atOffset(mismatch("embedded member must produce a struct, found %T", v), start), m.Name)
			}
			for _, k := range sub.Keys() {
				nv, _ := sub.Get(k)
				if prev, ok := out.Get(k); ok && prev != nil && !goconstruct.Equal(prev, nv) {
					e := goconstruct.NewError(goconstruct.CodeEmbedConflict, "duplicate member on embed: "+describe(prev)+" vs "+describe(nv), "key", k)
					e.Offset = int64(start)
					return nil, goconstruct.WithPath(e, k)
				}
				out.Set(k, nv)
				ctx.Bind(k, nv)
			}
			if m.Name != "" {
				ctx.Bind(m.Name, sub)
			}
			continue
		}
		if m.Name != "" {
			out.Set(m.Name, v)
			ctx.Bind(m.Name, v)
		}
	}
	return out, nil
}

func (s *StructCon) BuildStream(v any, w *cursor.Writer, c *goconstruct.Context) error {
	if !goconstruct.IsObject(v) {
		return mismatch("expected struct value, found %T", v)
	}
	ctx := c.Child()
	for _, m := range s.members {
		var sub any
		switch {
		case m.Embed:
			sub = v
			if m.Name != "" {
				ctx.Bind(m.Name, v)
			}
			if names, ok := goconstruct.FieldNamesOf(m.Con); ok {
				for _, k := range names {
					if x, ok := goconstruct.FieldOf(v, k); ok {
						ctx.Bind(k, x)
					}
				}
			}
		case m.Name != "":
			x, ok := goconstruct.FieldOf(v, m.Name)
			if !ok {
				if !goconstruct.IsOmittable(m.Con) {
					return goconstruct.WithPath(missingValue(), m.Name)
				}
				x = staticValue(m.Con)
			}
			sub = x
			ctx.Bind(m.Name, x)
		}
		if err := m.Con.BuildStream(sub, w, ctx); err != nil {
			return goconstruct.WithPath(err, m.Name)
		}
	}
	return nil
}

// Sizeof sums the members over one shared scope. A member binds its static
// value before it is sized, so later members can size themselves from it.
// When c is the root scope handed to goconstruct.Sizeof, the values it
// holds under member names are bound too; nested aggregates see outer
// values only through ParentKey.
//
//	goconstruct.Sizeof(frame, goconstruct.NewContext(map[string]any{"length": 3}))
func (s *StructCon) Sizeof(c *goconstruct.Context) (int, error) {
	ctx := c.Child()
	root := c.Parent() == nil
	total := 0
	for _, m := range s.members {
		if m.Name != "" && !m.Embed {
			if st, ok := m.Con.(goconstruct.Static); ok {
				if v, ok := st.StaticValue(); ok {
					ctx.Bind(m.Name, v)
				}
			} else if root {
				if v, ok := c.Get(m.Name); ok {
					ctx.Bind(m.Name, v)
				}
			}
		}
		n, err := m.Con.Sizeof(ctx)
		if err != nil {
			return 0, goconstruct.WithPath(err, m.Name)
		}
		total += n
	}
	return total, nil
}

func staticValue(con goconstruct.Construct) any {
	if st, ok := con.(goconstruct.Static); ok {
		if v, ok := st.StaticValue(); ok {
			return v
		}
	}
	return nil
}
