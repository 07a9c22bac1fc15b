package dsl

import (
	"fmt"
	"reflect"
	"sort"

	goconstruct "github.com/reoring/goconstruct"
	"github.com/reoring/goconstruct/cursor"
)

// Cases maps switch keys to constructs. Integer keys of any Go type match
// each other by value.
type Cases map[any]goconstruct.Construct

// SwitchCon dispatches to the construct selected by Key.
type SwitchCon struct {
	Key   goconstruct.Param[any]
	cases map[any]goconstruct.Construct
	def   goconstruct.Construct
}

// SwitchE returns a dispatching construct. def may be nil, in which case
// an unknown key fails with CodeNoMatchingCase. A case without a construct,
// or whose key equals another case's key after numeric normalization, is
// a schema error.
func SwitchE(key goconstruct.Param[any], cases Cases, def goconstruct.Construct) (*SwitchCon, error) {
	norm := make(map[any]goconstruct.Construct, len(cases))
	for k, con := range cases {
		if con == nil {
			return nil, schemaError("switch case %v has no construct", k)
		}
		nk, ok := normKey(k)
		if !ok {
			return nil, schemaError("switch case key %T is not comparable", k)
		}
		if _, dup := norm[nk]; dup {
			return nil, schemaError("switch case %v is listed twice", nk)
		}
		norm[nk] = con
	}
	return &SwitchCon{Key: key, cases: norm, def: def}, nil
}

// Switch is SwitchE that panics on a malformed case table.
func Switch(key goconstruct.Param[any], cases Cases, def goconstruct.Construct) *SwitchCon {
	s, err := SwitchE(key, cases, def)
	if err != nil {
		panic(err)
	}
	return s
}

// IfThenElse selects then or els by a boolean predicate. There is no
// default: the predicate must always resolve.
func IfThenElse(pred goconstruct.Param[bool], then, els goconstruct.Construct) *SwitchCon {
	key := goconstruct.Derived(func(c *goconstruct.Context) (any, error) {
		b, err := pred.Eval(c)
		if err != nil {
			return nil, err
		}
		return b, nil
	})
	return Switch(key, Cases{true: then, false: els}, nil)
}

// If parses sub when pred holds and otherwise yields elseValue without
// consuming bytes.
func If(pred goconstruct.Param[bool], sub goconstruct.Construct, elseValue any) *SwitchCon {
	return IfThenElse(pred, sub, Value(goconstruct.Fixed(elseValue)))
}

// Equals derives a predicate comparing a key with want using
// goconstruct.Equal.
func Equals(key goconstruct.Param[any], want any) goconstruct.Param[bool] {
	return goconstruct.Derived(func(c *goconstruct.Context) (bool, error) {
		v, err := key.Eval(c)
		if err != nil {
			return false, err
		}
		return goconstruct.Equal(v, want), nil
	})
}

// Branches returns the cases in a stable order followed by the default,
// for schema export.
func (s *SwitchCon) Branches() (keys []any, cons []goconstruct.Construct, def goconstruct.Construct) {
	for k := range s.cases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j]) })
	for _, k := range keys {
		cons = append(cons, s.cases[k])
	}
	return keys, cons, s.def
}

func (s *SwitchCon) resolve(c *goconstruct.Context) (goconstruct.Construct, error) {
	k, err := s.Key.Eval(c)
	if err != nil {
		return nil, err
	}
	if nk, ok := normKey(k); ok {
		if con, ok := s.cases[nk]; ok {
			goconstruct.Logger().Trace().Interface("key", k).Msg("switch case")
			return con, nil
		}
	}
	if s.def != nil {
		goconstruct.Logger().Trace().Interface("key", k).Msg("switch default")
		return s.def, nil
	}
	return nil, goconstruct.NewError(goconstruct.CodeNoMatchingCase, "no case for key "+describe(k), "key", k)
}

func (s *SwitchCon) ParseStream(r *cursor.Reader, c *goconstruct.Context) (any, error) {
	con, err := s.resolve(c)
	if err != nil {
		return nil, atOffset(err, r.Pos())
	}
	return con.ParseStream(r, c)
}

func (s *SwitchCon) BuildStream(v any, w *cursor.Writer, c *goconstruct.Context) error {
	con, err := s.resolve(c)
	if err != nil {
		return err
	}
	return con.BuildStream(v, w, c)
}

func (s *SwitchCon) Sizeof(c *goconstruct.Context) (int, error) {
	con, err := s.resolve(c)
	if err != nil {
		if goconstruct.CodeOf(err) == goconstruct.CodeNoMatchingCase {
			return 0, err
		}
		return 0, notStatic("switch key", err)
	}
	return con.Sizeof(c)
}

// normKey folds every integer kind (and integral floats) to int64, or
// uint64 above the int64 range, and byte slices to strings.
func normKey(k any) (any, bool) {
	switch x := k.(type) {
	case nil:
		return nil, true
	case bool, string:
		return x, true
	case []byte:
		return string(x), true
	}
	if i, ok := goconstruct.ToInt64(k); ok {
		return i, true
	}
	if u, ok := goconstruct.ToUint64(k); ok {
		return u, true
	}
	if !reflect.TypeOf(k).Comparable() {
		return nil, false
	}
	return k, true
}
