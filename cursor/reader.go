package cursor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrUnderrun is matched (errors.Is) by every UnderrunError.
var ErrUnderrun = errors.New("cursor: buffer underrun")

// UnderrunError reports a read that asked for more bytes than remain.
type UnderrunError struct {
	Offset int // position of the failed read
	Want   int
	Have   int
}

func (e *UnderrunError) Error() string {
	return fmt.Sprintf("cursor: buffer underrun at offset %d: need %d bytes, %d remain", e.Offset, e.Want, e.Have)
}

func (e *UnderrunError) Is(target error) bool { return target == ErrUnderrun }

// Reader is a sequential read position over an immutable byte buffer.
// A read either advances by exactly the requested width or fails without
// moving.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps b. The buffer is not copied and must not be modified
// while the reader is in use.
func NewReader(b []byte) *Reader { return &Reader{buf: b} }

// Pos returns the number of bytes consumed so far.
func (r *Reader) Pos() int { return r.pos }

// Len returns the total length of the underlying buffer.
func (r *Reader) Len() int { return len(r.buf) }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Read returns the next n bytes. The returned slice aliases the buffer.
func (r *Reader) Read(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("cursor: negative read length %d", n)
	}
	if n > r.Remaining() {
		return nil, &UnderrunError{Offset: r.pos, Want: n, Have: r.Remaining()}
	}
	out := r.buf[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return out, nil
}

// ReadAll returns every remaining byte and moves to the end.
func (r *Reader) ReadAll() []byte {
	out := r.buf[r.pos:len(r.buf):len(r.buf)]
	r.pos = len(r.buf)
	return out
}

func (r *Reader) Int8() (int8, error) {
	b, err := r.Read(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (r *Reader) Uint8() (uint8, error) {
	b, err := r.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Int16(order binary.ByteOrder) (int16, error) {
	v, err := r.Uint16(order)
	return int16(v), err
}

func (r *Reader) Uint16(order binary.ByteOrder) (uint16, error) {
	b, err := r.Read(2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

func (r *Reader) Int32(order binary.ByteOrder) (int32, error) {
	v, err := r.Uint32(order)
	return int32(v), err
}

func (r *Reader) Uint32(order binary.ByteOrder) (uint32, error) {
	b, err := r.Read(4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

func (r *Reader) Int64(order binary.ByteOrder) (int64, error) {
	v, err := r.Uint64(order)
	return int64(v), err
}

func (r *Reader) Uint64(order binary.ByteOrder) (uint64, error) {
	b, err := r.Read(8)
	if err != nil {
		return 0, err
	}
	return order.Uint64(b), nil
}

func (r *Reader) Float32(order binary.ByteOrder) (float32, error) {
	v, err := r.Uint32(order)
	return math.Float32frombits(v), err
}

func (r *Reader) Float64(order binary.ByteOrder) (float64, error) {
	v, err := r.Uint64(order)
	return math.Float64frombits(v), err
}
