package goconstruct

import (
	"github.com/reoring/goconstruct/cursor"
)

// Construct is one immutable schema node. A single definition yields the
// parser, the builder and the static size of a binary layout.
//
// ParseStream and BuildStream receive the scope of the enclosing aggregate
// (an empty root scope at the top level). Implementations must not retain
// the reader, writer or context after returning.
type Construct interface {
	ParseStream(r *cursor.Reader, c *Context) (any, error)
	BuildStream(v any, w *cursor.Writer, c *Context) error
	// Sizeof returns the encoded length, or an error with CodeIndeterminate
	// when it cannot be known without data.
	Sizeof(c *Context) (int, error)
}

// Parse decodes data with con starting from an empty root scope.
func Parse(con Construct, data []byte) (any, error) {
	return ParseReader(con, cursor.NewReader(data), nil)
}

// ParseAll is Parse that also fails when con leaves bytes unconsumed.
func ParseAll(con Construct, data []byte) (any, error) {
	r := cursor.NewReader(data)
	v, err := ParseReader(con, r, nil)
	if err != nil {
		return nil, err
	}
	if n := r.Remaining(); n > 0 {
		e := NewError(CodeShapeMismatch, "expected end of stream", "remaining", n)
		e.Offset = int64(r.Pos())
		return nil, e
	}
	return v, nil
}

// ParseReader decodes from an existing reader. A nil scope starts a fresh
// root scope.
func ParseReader(con Construct, r *cursor.Reader, c *Context) (any, error) {
	if con == nil {
		return nil, NewError(CodeSchema, "nil construct")
	}
	if c == nil {
		c = &Context{}
	}
	v, err := con.ParseStream(r, c)
	if err != nil {
		e := toError(err)
		Logger().Debug().Str("code", e.Code).Str("path", e.Path).Int("offset", r.Pos()).Msg("parse failed")
		return nil, e
	}
	return v, nil
}

// Build encodes v with con starting from an empty root scope.
func Build(con Construct, v any) ([]byte, error) {
	w := cursor.NewWriter(cursor.DefaultCapacity)
	if err := BuildWriter(con, v, w, nil); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// BuildWriter encodes v into an existing writer. A nil scope starts a
// fresh root scope.
func BuildWriter(con Construct, v any, w *cursor.Writer, c *Context) error {
	if con == nil {
		return NewError(CodeSchema, "nil construct")
	}
	if c == nil {
		c = &Context{}
	}
	if err := con.BuildStream(v, w, c); err != nil {
		e := toError(err)
		Logger().Debug().Str("code", e.Code).Str("path", e.Path).Int("written", w.Len()).Msg("build failed")
		return e
	}
	return nil
}

// Sizeof returns con's static encoded length. Failures are returned, never
// swallowed; a data-dependent length yields CodeIndeterminate.
func Sizeof(con Construct, c *Context) (int, error) {
	if con == nil {
		return 0, NewError(CodeSchema, "nil construct")
	}
	if c == nil {
		c = &Context{}
	}
	n, err := con.Sizeof(c)
	if err != nil {
		e := toError(err)
		Logger().Debug().Str("code", e.Code).Str("path", e.Path).Msg("sizeof failed")
		return 0, e
	}
	return n, nil
}

// Subconstruct holds one child and forwards every operation to it. Embed
// it to customize only some operations.
type Subconstruct struct {
	Sub Construct
}

func (s Subconstruct) ParseStream(r *cursor.Reader, c *Context) (any, error) {
	return s.Sub.ParseStream(r, c)
}

func (s Subconstruct) BuildStream(v any, w *cursor.Writer, c *Context) error {
	return s.Sub.BuildStream(v, w, c)
}

func (s Subconstruct) Sizeof(c *Context) (int, error) { return s.Sub.Sizeof(c) }

// Unwrap returns the child construct.
func (s Subconstruct) Unwrap() Construct { return s.Sub }

// Transform maps a value in one direction of an Adapter.
type Transform func(v any, c *Context) (any, error)

// Adapter changes a child's decoded representation without changing its
// wire length: parse = Decode(child), build = child(Encode(v)).
type Adapter struct {
	Subconstruct
	Decode Transform
	Encode Transform
}

// NewAdapter wraps sub with a decode/encode pair. The pair must be
// mutually inverse over valid user values.
func NewAdapter(sub Construct, decode, encode Transform) *Adapter {
	return &Adapter{Subconstruct: Subconstruct{Sub: sub}, Decode: decode, Encode: encode}
}

func (a *Adapter) ParseStream(r *cursor.Reader, c *Context) (any, error) {
	raw, err := a.Sub.ParseStream(r, c)
	if err != nil {
		return nil, err
	}
	v, err := a.Decode(raw, c)
	if err != nil {
		return nil, transformError(err, r.Pos())
	}
	return v, nil
}

func (a *Adapter) BuildStream(v any, w *cursor.Writer, c *Context) error {
	raw, err := a.Encode(v, c)
	if err != nil {
		return transformError(err, -1)
	}
	return a.Sub.BuildStream(raw, w, c)
}

func transformError(err error, offset int) error {
	if _, ok := AsError(err); ok {
		return err
	}
	e := NewError(CodeCodec, err.Error())
	e.Cause = err
	e.Offset = int64(offset)
	return e
}
