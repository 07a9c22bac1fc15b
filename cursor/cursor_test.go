package cursor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestReader_ReadAdvancesOrFails(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	b, err := r.Read(2)
	if err != nil || !bytes.Equal(b, []byte{1, 2}) || r.Pos() != 2 {
		t.Fatalf("read 2: b=%v err=%v pos=%d", b, err, r.Pos())
	}
	if _, err := r.Read(2); !errors.Is(err, ErrUnderrun) {
		t.Fatalf("expected underrun, got %v", err)
	}
	if r.Pos() != 2 {
		t.Fatalf("failed read must not move, pos=%d", r.Pos())
	}
	var ue *UnderrunError
	if _, err := r.Read(5); !errors.As(err, &ue) || ue.Want != 5 || ue.Have != 1 || ue.Offset != 2 {
		t.Fatalf("unexpected underrun detail: %+v", ue)
	}
	if rest := r.ReadAll(); !bytes.Equal(rest, []byte{3}) || r.Remaining() != 0 {
		t.Fatalf("read all: %v remaining=%d", rest, r.Remaining())
	}
	if rest := r.ReadAll(); len(rest) != 0 {
		t.Fatalf("expected empty tail, got %v", rest)
	}
}

// TestReader_FixedWidth checks two's-complement and IEEE-754 decoding in
// both byte orders.
func TestReader_FixedWidth(t *testing.T) {
	r := NewReader([]byte{
		0xff,       // int8 -1
		0xfe, 0xff, // int16 LE -2
		0x00, 0x00, 0x80, 0x3f, // float32 LE 1.0
		0x3f, 0xf0, 0, 0, 0, 0, 0, 0, // float64 BE 1.0
		0x80, 0, 0, 0, // uint32 BE
	})
	if v, err := r.Int8(); err != nil || v != -1 {
		t.Fatalf("int8: %v %v", v, err)
	}
	if v, err := r.Int16(binary.LittleEndian); err != nil || v != -2 {
		t.Fatalf("int16: %v %v", v, err)
	}
	if v, err := r.Float32(binary.LittleEndian); err != nil || v != 1.0 {
		t.Fatalf("float32: %v %v", v, err)
	}
	if v, err := r.Float64(binary.BigEndian); err != nil || v != 1.0 {
		t.Fatalf("float64: %v %v", v, err)
	}
	if v, err := r.Uint32(binary.BigEndian); err != nil || v != 0x80000000 {
		t.Fatalf("uint32: %v %v", v, err)
	}
	if _, err := r.Uint8(); !errors.Is(err, ErrUnderrun) {
		t.Fatalf("expected underrun at end, got %v", err)
	}
}

func TestWriter_GrowthPreservesBytes(t *testing.T) {
	w := NewWriter(4)
	w.Write([]byte{1, 2, 3})
	w.Write([]byte{4, 5}) // needs 5, 4*1.5=6
	if w.Cap() != 6 {
		t.Fatalf("expected growth to 6, got %d", w.Cap())
	}
	w.Write(bytes.Repeat([]byte{9}, 20)) // pos+extra=25 > 9
	if w.Cap() != 25 {
		t.Fatalf("expected growth to 25, got %d", w.Cap())
	}
	got := w.Bytes()
	want := append([]byte{1, 2, 3, 4, 5}, bytes.Repeat([]byte{9}, 20)...)
	if !bytes.Equal(got, want) {
		t.Fatalf("bytes changed across growth: %v", got)
	}
	if w.Len() != 25 {
		t.Fatalf("logical length %d", w.Len())
	}
}

func TestWriter_DefaultCapacityAndLogicalLength(t *testing.T) {
	w := NewWriter(0)
	if w.Cap() != DefaultCapacity {
		t.Fatalf("default capacity %d", w.Cap())
	}
	w.Uint8(7)
	if b := w.Bytes(); len(b) != 1 || b[0] != 7 {
		t.Fatalf("expected exactly the written byte, got %v", b)
	}
}

// TestWriter_Float64IsEightBytes guards against writing a 4-byte float
// into an 8-byte slot.
func TestWriter_Float64IsEightBytes(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		w := NewWriter(1)
		w.Float64(math.Pi, order)
		b := w.Bytes()
		if len(b) != 8 {
			t.Fatalf("%v: expected 8 bytes, got %d", order, len(b))
		}
		v, err := NewReader(b).Float64(order)
		if err != nil || v != math.Pi {
			t.Fatalf("%v: round trip got %v err=%v", order, v, err)
		}
	}
}

func TestWriter_IntegersRoundTrip(t *testing.T) {
	w := NewWriter(2)
	w.Int8(-5)
	w.Uint16(0xBEEF, binary.BigEndian)
	w.Int32(-123456, binary.LittleEndian)
	w.Uint64(math.MaxUint64-1, binary.BigEndian)
	w.Int64(math.MinInt64, binary.LittleEndian)
	w.Float32(2.5, binary.BigEndian)

	r := NewReader(w.Bytes())
	if v, _ := r.Int8(); v != -5 {
		t.Fatalf("int8 %d", v)
	}
	if v, _ := r.Uint16(binary.BigEndian); v != 0xBEEF {
		t.Fatalf("uint16 %x", v)
	}
	if v, _ := r.Int32(binary.LittleEndian); v != -123456 {
		t.Fatalf("int32 %d", v)
	}
	if v, _ := r.Uint64(binary.BigEndian); v != math.MaxUint64-1 {
		t.Fatalf("uint64 %d", v)
	}
	if v, _ := r.Int64(binary.LittleEndian); v != math.MinInt64 {
		t.Fatalf("int64 %d", v)
	}
	if v, _ := r.Float32(binary.BigEndian); v != 2.5 {
		t.Fatalf("float32 %v", v)
	}
	if r.Remaining() != 0 {
		t.Fatalf("unexpected trailing bytes: %d", r.Remaining())
	}
}
