package cursor

import (
	"encoding/binary"
	"math"
)

// DefaultCapacity is the initial backing size used when NewWriter is given
// a non-positive capacity.
const DefaultCapacity = 4096

// Writer is a sequential write position over a growable buffer. The
// backing storage may be larger than what was written; Bytes returns only
// the logical length.
type Writer struct {
	buf []byte
	pos int
}

// NewWriter allocates a writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Writer{buf: make([]byte, capacity)}
}

// Len returns the number of bytes written.
func (w *Writer) Len() int { return w.pos }

// Cap returns the size of the backing buffer.
func (w *Writer) Cap() int { return len(w.buf) }

// EnsureCapacity makes room for extra more bytes. When the buffer is too
// small it is replaced by one of max(pos+extra, cap*1.5) bytes and the
// written prefix is copied over.
func (w *Writer) EnsureCapacity(extra int) {
	if w.pos+extra <= len(w.buf) {
		return
	}
	size := len(w.buf) + len(w.buf)>>1
	if need := w.pos + extra; need > size {
		size = need
	}
	next := make([]byte, size)
	copy(next, w.buf[:w.pos])
	w.buf = next
}

// Write appends b.
func (w *Writer) Write(b []byte) {
	w.EnsureCapacity(len(b))
	w.pos += copy(w.buf[w.pos:], b)
}

// WriteByte appends a single byte. It never fails.
func (w *Writer) WriteByte(b byte) error {
	w.EnsureCapacity(1)
	w.buf[w.pos] = b
	w.pos++
	return nil
}

// Bytes returns a copy of the bytes written so far.
func (w *Writer) Bytes() []byte {
	out := make([]byte, w.pos)
	copy(out, w.buf[:w.pos])
	return out
}

// reserve returns the next n bytes of the buffer and advances past them.
func (w *Writer) reserve(n int) []byte {
	w.EnsureCapacity(n)
	b := w.buf[w.pos : w.pos+n]
	w.pos += n
	return b
}

func (w *Writer) Int8(v int8) { _ = w.WriteByte(byte(v)) }

func (w *Writer) Uint8(v uint8) { _ = w.WriteByte(v) }

func (w *Writer) Int16(v int16, order binary.ByteOrder) { w.Uint16(uint16(v), order) }

func (w *Writer) Uint16(v uint16, order binary.ByteOrder) { order.PutUint16(w.reserve(2), v) }

func (w *Writer) Int32(v int32, order binary.ByteOrder) { w.Uint32(uint32(v), order) }

func (w *Writer) Uint32(v uint32, order binary.ByteOrder) { order.PutUint32(w.reserve(4), v) }

func (w *Writer) Int64(v int64, order binary.ByteOrder) { w.Uint64(uint64(v), order) }

func (w *Writer) Uint64(v uint64, order binary.ByteOrder) { order.PutUint64(w.reserve(8), v) }

func (w *Writer) Float32(v float32, order binary.ByteOrder) {
	w.Uint32(math.Float32bits(v), order)
}

func (w *Writer) Float64(v float64, order binary.ByteOrder) {
	w.Uint64(math.Float64bits(v), order)
}
