package dsl

import (
	goconstruct "github.com/reoring/goconstruct"
	"github.com/reoring/goconstruct/cursor"
)

// ArrayCon repeats Sub exactly Count times. Every repetition sees the same
// scope as the Array itself.
type ArrayCon struct {
	Count goconstruct.Param[int]
	Sub   goconstruct.Construct
}

// Array returns an Array with a fixed or derived count. It panics on a nil
// element construct.
func Array(count goconstruct.Param[int], sub goconstruct.Construct) *ArrayCon {
	if sub == nil {
		panic(schemaError("array element has no construct"))
	}
	return &ArrayCon{Count: count, Sub: sub}
}

// ArrayN is Array with a fixed count.
func ArrayN(n int, sub goconstruct.Construct) *ArrayCon {
	return Array(goconstruct.Fixed(n), sub)
}

func (a *ArrayCon) count(c *goconstruct.Context) (int, error) {
	n, err := a.Count.Eval(c)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, mismatch("negative count %d", n)
	}
	return n, nil
}

func (a *ArrayCon) ParseStream(r *cursor.Reader, c *goconstruct.Context) (any, error) {
	n, err := a.count(c)
	if err != nil {
		return nil, atOffset(err, r.Pos())
	}
	out := make([]any, 0, min(n, r.Remaining()+1))
	for i := 0; i < n; i++ {
		v, err := a.Sub.ParseStream(r, c)
		if err != nil {
			return nil, goconstruct.WithPath(err, i)
		}
		out = append(out, v)
	}
	return out, nil
}

func (a *ArrayCon) BuildStream(v any, w *cursor.Writer, c *goconstruct.Context) error {
	n, err := a.count(c)
	if err != nil {
		return err
	}
	items, ok := goconstruct.ListOf(v)
	if !ok {
		return mismatch("expected list, found %T", v)
	}
	if len(items) < n {
		return goconstruct.WithPath(missingValue(), len(items))
	}
	for i := 0; i < n; i++ {
		if err := a.Sub.BuildStream(items[i], w, c); err != nil {
			return goconstruct.WithPath(err, i)
		}
	}
	return nil
}

func (a *ArrayCon) Sizeof(c *goconstruct.Context) (int, error) {
	n, err := a.count(c)
	if err != nil {
		if a.Count.IsFixed() {
			return 0, err
		}
		return 0, notStatic("array count", err)
	}
	if n == 0 {
		return 0, nil
	}
	each, err := a.Sub.Sizeof(c)
	if err != nil {
		return 0, err
	}
	return n * each, nil
}

// notStatic converts a Param evaluation failure during Sizeof into an
// indeterminate-size error.
func notStatic(what string, cause error) error {
	e := goconstruct.NewError(goconstruct.CodeIndeterminate, what+" depends on data")
	e.Cause = cause
	return e
}
