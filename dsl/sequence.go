package dsl

import (
	"strconv"

	goconstruct "github.com/reoring/goconstruct"
	"github.com/reoring/goconstruct/cursor"
)

// SequenceCon is the positional analogue of Struct. Its scope binds each
// result under its index, so later members can read earlier ones with
// goconstruct.IntAt(0).
type SequenceCon struct {
	members []goconstruct.Construct
}

// SequenceOf validates members and returns a Sequence.
func SequenceOf(members ...goconstruct.Construct) (*SequenceCon, error) {
	for i, m := range members {
		if m == nil {
			e := schemaError("member %d has no construct", i)
			e.Path = "/" + strconv.Itoa(i)
			return nil, e
		}
	}
	return &SequenceCon{members: append([]goconstruct.Construct(nil), members...)}, nil
}

// Sequence is SequenceOf that panics on a nil member.
func Sequence(members ...goconstruct.Construct) *SequenceCon {
	s, err := SequenceOf(members...)
	if err != nil {
		panic(err)
	}
	return s
}

// Members returns a copy of the member list.
func (s *SequenceCon) Members() []goconstruct.Construct {
	return append([]goconstruct.Construct(nil), s.members...)
}

func (s *SequenceCon) ParseStream(r *cursor.Reader, c *goconstruct.Context) (any, error) {
	ctx := c.Child()
	out := make([]any, 0, len(s.members))
	for i, m := range s.members {
		v, err := m.ParseStream(r, ctx)
		if err != nil {
			return nil, goconstruct.WithPath(err, i)
		}
		ctx.Bind(i, v)
		out = append(out, v)
	}
	return out, nil
}

func (s *SequenceCon) BuildStream(v any, w *cursor.Writer, c *goconstruct.Context) error {
	items, ok := goconstruct.ListOf(v)
	if !ok {
		return mismatch("expected list, found %T", v)
	}
	ctx := c.Child()
	for i, m := range s.members {
		if i >= len(items) {
			return goconstruct.WithPath(missingValue(), i)
		}
		x := items[i]
		ctx.Bind(i, x)
		if err := m.BuildStream(x, w, ctx); err != nil {
			return goconstruct.WithPath(err, i)
		}
	}
	return nil
}

func (s *SequenceCon) Sizeof(c *goconstruct.Context) (int, error) {
	ctx := c.Child()
	total := 0
	for i, m := range s.members {
		if st, ok := m.(goconstruct.Static); ok {
			if v, ok := st.StaticValue(); ok {
				ctx.Bind(i, v)
			}
		}
		n, err := m.Sizeof(ctx)
		if err != nil {
			return 0, goconstruct.WithPath(err, i)
		}
		total += n
	}
	return total, nil
}
