package dsl

import (
	"encoding/binary"
	"math"

	goconstruct "github.com/reoring/goconstruct"
	"github.com/reoring/goconstruct/cursor"
)

// RawCon reads and writes exactly Length bytes.
type RawCon struct {
	Length goconstruct.Param[int]
}

// Raw returns a byte-string leaf whose length is fixed or derived from the
// context.
func Raw(length goconstruct.Param[int]) *RawCon { return &RawCon{Length: length} }

// Bytes is Raw with a fixed length.
func Bytes(n int) *RawCon { return Raw(goconstruct.Fixed(n)) }

func (rc *RawCon) length(c *goconstruct.Context) (int, error) {
	n, err := rc.Length.Eval(c)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, mismatch("negative length %d", n)
	}
	return n, nil
}

func (rc *RawCon) ParseStream(r *cursor.Reader, c *goconstruct.Context) (any, error) {
	n, err := rc.length(c)
	if err != nil {
		return nil, atOffset(err, r.Pos())
	}
	b, err := r.Read(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

func (rc *RawCon) BuildStream(v any, w *cursor.Writer, c *goconstruct.Context) error {
	n, err := rc.length(c)
	if err != nil {
		return err
	}
	b, ok := goconstruct.BytesOf(v)
	if !ok {
		return mismatch("expected bytes, found %T", v)
	}
	if len(b) != n {
		return mismatch("expected %d bytes, found %d", n, len(b))
	}
	w.Write(b)
	return nil
}

func (rc *RawCon) Sizeof(c *goconstruct.Context) (int, error) {
	n, err := rc.length(c)
	if err != nil && !rc.Length.IsFixed() {
		return 0, notStatic("raw length", err)
	}
	return n, err
}

type numKind uint8

const (
	signed numKind = iota
	unsigned
	float
)

// NumericCon is a fixed-width integer or IEEE-754 leaf. Parse yields the
// exact Go type of the width (int8 .. uint64, float32, float64).
type NumericCon struct {
	name  string
	width int
	kind  numKind
	order binary.ByteOrder
}

// Name returns the leaf's schema name, for example "uint16be".
func (n *NumericCon) Name() string { return n.name }

// Width returns the encoded width in bytes.
func (n *NumericCon) Width() int { return n.width }

// IsFloat reports whether the leaf is IEEE-754.
func (n *NumericCon) IsFloat() bool { return n.kind == float }

func numeric(name string, width int, kind numKind, order binary.ByteOrder) *NumericCon {
	return &NumericCon{name: name, width: width, kind: kind, order: order}
}

var (
	le = binary.LittleEndian
	be = binary.BigEndian

	int8Con     = numeric("int8", 1, signed, be)
	uint8Con    = numeric("uint8", 1, unsigned, be)
	int16LECon  = numeric("int16le", 2, signed, le)
	int16BECon  = numeric("int16be", 2, signed, be)
	uint16LECon = numeric("uint16le", 2, unsigned, le)
	uint16BECon = numeric("uint16be", 2, unsigned, be)
	int32LECon  = numeric("int32le", 4, signed, le)
	int32BECon  = numeric("int32be", 4, signed, be)
	uint32LECon = numeric("uint32le", 4, unsigned, le)
	uint32BECon = numeric("uint32be", 4, unsigned, be)
	int64LECon  = numeric("int64le", 8, signed, le)
	int64BECon  = numeric("int64be", 8, signed, be)
	uint64LECon = numeric("uint64le", 8, unsigned, le)
	uint64BECon = numeric("uint64be", 8, unsigned, be)
	f32LECon    = numeric("float32le", 4, float, le)
	f32BECon    = numeric("float32be", 4, float, be)
	f64LECon    = numeric("float64le", 8, float, le)
	f64BECon    = numeric("float64be", 8, float, be)
)

func Int8() *NumericCon     { return int8Con }
func Uint8() *NumericCon    { return uint8Con }
func Int16LE() *NumericCon  { return int16LECon }
func Int16BE() *NumericCon  { return int16BECon }
func Uint16LE() *NumericCon { return uint16LECon }
func Uint16BE() *NumericCon { return uint16BECon }
func Int32LE() *NumericCon  { return int32LECon }
func Int32BE() *NumericCon  { return int32BECon }
func Uint32LE() *NumericCon { return uint32LECon }
func Uint32BE() *NumericCon { return uint32BECon }
func Int64LE() *NumericCon  { return int64LECon }
func Int64BE() *NumericCon  { return int64BECon }
func Uint64LE() *NumericCon { return uint64LECon }
func Uint64BE() *NumericCon { return uint64BECon }

func Float32LE() *NumericCon { return f32LECon }
func Float32BE() *NumericCon { return f32BECon }
func Float64LE() *NumericCon { return f64LECon }
func Float64BE() *NumericCon { return f64BECon }

// Numerics lists every numeric leaf by schema name.
func Numerics() map[string]*NumericCon {
	out := map[string]*NumericCon{}
	for _, n := range []*NumericCon{
		int8Con, uint8Con, int16LECon, int16BECon, uint16LECon, uint16BECon,
		int32LECon, int32BECon, uint32LECon, uint32BECon,
		int64LECon, int64BECon, uint64LECon, uint64BECon,
		f32LECon, f32BECon, f64LECon, f64BECon,
	} {
		out[n.name] = n
	}
	return out
}

func (n *NumericCon) ParseStream(r *cursor.Reader, _ *goconstruct.Context) (any, error) {
	switch n.kind {
	case float:
		if n.width == 4 {
			return r.Float32(n.order)
		}
		return r.Float64(n.order)
	case signed:
		switch n.width {
		case 1:
			return r.Int8()
		case 2:
			return r.Int16(n.order)
		case 4:
			return r.Int32(n.order)
		default:
			return r.Int64(n.order)
		}
	default:
		switch n.width {
		case 1:
			return r.Uint8()
		case 2:
			return r.Uint16(n.order)
		case 4:
			return r.Uint32(n.order)
		default:
			return r.Uint64(n.order)
		}
	}
}

func (n *NumericCon) BuildStream(v any, w *cursor.Writer, _ *goconstruct.Context) error {
	switch n.kind {
	case float:
		f, ok := goconstruct.ToFloat64(v)
		if !ok {
			return mismatch("%s: expected number, found %s", n.name, describe(v))
		}
		if n.width == 4 {
			if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
				return mismatch("%s: %v out of range", n.name, f)
			}
			w.Float32(float32(f), n.order)
			return nil
		}
		w.Float64(f, n.order)
		return nil
	case signed:
		i, ok := goconstruct.ToInt64(v)
		if !ok {
			return mismatch("%s: expected integer, found %s", n.name, describe(v))
		}
		bits := uint(n.width * 8)
		if bits < 64 {
			lo, hi := -int64(1)<<(bits-1), int64(1)<<(bits-1)-1
			if i < lo || i > hi {
				return mismatch("%s: %d out of range [%d, %d]", n.name, i, lo, hi)
			}
		}
		n.putUint(w, uint64(i))
		return nil
	default:
		u, ok := goconstruct.ToUint64(v)
		if !ok {
			return mismatch("%s: expected non-negative integer, found %s", n.name, describe(v))
		}
		if bits := uint(n.width * 8); bits < 64 && u > uint64(1)<<bits-1 {
			return mismatch("%s: %d out of range [0, %d]", n.name, u, uint64(1)<<bits-1)
		}
		n.putUint(w, u)
		return nil
	}
}

func (n *NumericCon) putUint(w *cursor.Writer, u uint64) {
	switch n.width {
	case 1:
		w.Uint8(uint8(u))
	case 2:
		w.Uint16(uint16(u), n.order)
	case 4:
		w.Uint32(uint32(u), n.order)
	default:
		w.Uint64(u, n.order)
	}
}

func (n *NumericCon) Sizeof(*goconstruct.Context) (int, error) { return n.width, nil }

type tailCon struct{}

// Tail consumes every remaining byte on parse and writes bytes verbatim on
// build. Its size is never static.
func Tail() goconstruct.Construct { return tailCon{} }

func (tailCon) ParseStream(r *cursor.Reader, _ *goconstruct.Context) (any, error) {
	b := r.ReadAll()
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (tailCon) BuildStream(v any, w *cursor.Writer, _ *goconstruct.Context) error {
	b, ok := goconstruct.BytesOf(v)
	if !ok {
		return mismatch("expected bytes, found %T", v)
	}
	w.Write(b)
	return nil
}

func (tailCon) Sizeof(*goconstruct.Context) (int, error) { return 0, indeterminate("tail") }

type terminatorCon struct{}

// Terminator asserts the end of the input. It produces nil.
func Terminator() goconstruct.Construct { return terminatorCon{} }

func (terminatorCon) ParseStream(r *cursor.Reader, _ *goconstruct.Context) (any, error) {
	if n := r.Remaining(); n > 0 {
		e := goconstruct.NewError(goconstruct.CodeShapeMismatch, "expected end of stream", "remaining", n)
		e.Offset = int64(r.Pos())
		return nil, e
	}
	return nil, nil
}

func (terminatorCon) BuildStream(v any, _ *cursor.Writer, _ *goconstruct.Context) error {
	if v != nil {
		return mismatch("expected null, found %s", describe(v))
	}
	return nil
}

func (terminatorCon) Sizeof(*goconstruct.Context) (int, error) { return 0, nil }
func (terminatorCon) Omittable() bool                          { return true }

type passCon struct{}

// Pass does nothing in either direction.
func Pass() goconstruct.Construct { return passCon{} }

func (passCon) ParseStream(*cursor.Reader, *goconstruct.Context) (any, error) { return nil, nil }
func (passCon) BuildStream(any, *cursor.Writer, *goconstruct.Context) error   { return nil }
func (passCon) Sizeof(*goconstruct.Context) (int, error)                      { return 0, nil }
func (passCon) Omittable() bool                                               { return true }

// ValueCon is a computed member: it consumes and emits no bytes.
type ValueCon struct {
	X goconstruct.Param[any]
}

// Value returns a construct that parses to x without reading, and on build
// accepts nil or a value equal to x.
func Value(x goconstruct.Param[any]) *ValueCon { return &ValueCon{X: x} }

func (vc *ValueCon) ParseStream(_ *cursor.Reader, c *goconstruct.Context) (any, error) {
	return vc.X.Eval(c)
}

func (vc *ValueCon) BuildStream(v any, _ *cursor.Writer, c *goconstruct.Context) error {
	want, err := vc.X.Eval(c)
	if err != nil {
		return err
	}
	if v != nil && !goconstruct.Equal(v, want) {
		return mismatch("expected %s, found %s", describe(want), describe(v))
	}
	return nil
}

func (vc *ValueCon) Sizeof(*goconstruct.Context) (int, error) { return 0, nil }
func (vc *ValueCon) Omittable() bool                          { return true }

// StaticValue returns x when it does not depend on the context.
func (vc *ValueCon) StaticValue() (any, bool) {
	if !vc.X.IsFixed() {
		return nil, false
	}
	v, _ := vc.X.Eval(nil)
	return v, true
}
