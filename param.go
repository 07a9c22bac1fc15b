package goconstruct

import "fmt"

// Param is a value that is either fixed at schema-definition time or
// derived from the context at traversal time. Lengths, counts and switch
// keys are Params.
type Param[T any] struct {
	fixed  T
	derive func(*Context) (T, error)
}

// Fixed returns a Param that always evaluates to v.
func Fixed[T any](v T) Param[T] { return Param[T]{fixed: v} }

// Derived returns a Param computed from the context.
func Derived[T any](fn func(*Context) (T, error)) Param[T] { return Param[T]{derive: fn} }

// IsFixed reports whether p is independent of the context.
func (p Param[T]) IsFixed() bool { return p.derive == nil }

// Eval evaluates p against c.
func (p Param[T]) Eval(c *Context) (T, error) {
	if p.derive == nil {
		return p.fixed, nil
	}
	return p.derive(c)
}

// At derives a value by looking path up in the current scope.
//
//	dsl.Switch(goconstruct.At("kind"), cases, nil)
func At(path ...any) Param[any] {
	return Derived(func(c *Context) (any, error) {
		v, ok := c.Lookup(path...)
		if !ok {
			return nil, NewError(CodeShapeMismatch, fmt.Sprintf("context has no value at %v", path), "path", path)
		}
		return v, nil
	})
}

// IntAt derives a non-negative int by looking path up in the current scope.
//
//	dsl.Raw(goconstruct.IntAt("length"))
func IntAt(path ...any) Param[int] {
	ref := At(path...)
	return Derived(func(c *Context) (int, error) {
		v, err := ref.Eval(c)
		if err != nil {
			return 0, err
		}
		n, ok := ToInt(v)
		if !ok {
			return 0, NewError(CodeShapeMismatch, fmt.Sprintf("value at %v is not an integer: %T", path, v))
		}
		return n, nil
	})
}
