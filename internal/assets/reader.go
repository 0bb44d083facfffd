package assets

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// reader is a positioned little/big-endian cursor over an in-memory blob.
// The first failure sticks: later reads return zero values and Err reports
// the original problem, so parsers check once per logical section.
type reader struct {
	data  []byte
	pos   int
	order binary.ByteOrder
	err   error
}

func newReader(data []byte, order binary.ByteOrder) *reader {
	return &reader{data: data, order: order}
}

func (r *reader) Err() error { return r.err }

func (r *reader) Pos() int { return r.pos }

func (r *reader) Len() int { return len(r.data) }

func (r *reader) Remaining() int {
	if r.pos >= len(r.data) {
		return 0
	}
	return len(r.data) - r.pos
}

func (r *reader) Seek(pos int) {
	if r.err != nil {
		return
	}
	if pos < 0 || pos > len(r.data) {
		r.err = fmt.Errorf("seek to %d outside %d byte blob", pos, len(r.data))
		return
	}
	r.pos = pos
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.Remaining() {
		r.err = fmt.Errorf("read %d bytes at offset %d: %w", n, r.pos, io.ErrUnexpectedEOF)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) Bytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (r *reader) Skip(n int) { r.take(n) }

func (r *reader) U8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) Bool() bool { return r.U8() != 0 }

func (r *reader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return r.order.Uint16(b)
}

func (r *reader) I16() int16 { return int16(r.U16()) }

func (r *reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return r.order.Uint32(b)
}

func (r *reader) I32() int32 { return int32(r.U32()) }

func (r *reader) U64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return r.order.Uint64(b)
}

func (r *reader) I64() int64 { return int64(r.U64()) }

func (r *reader) F32() float32 { return math.Float32frombits(r.U32()) }

func (r *reader) F64() float64 { return math.Float64frombits(r.U64()) }

// CString reads a NUL-terminated string.
func (r *reader) CString() string {
	if r.err != nil {
		return ""
	}
	idx := bytes.IndexByte(r.data[r.pos:], 0)
	if idx < 0 {
		r.err = fmt.Errorf("unterminated string at offset %d: %w", r.pos, io.ErrUnexpectedEOF)
		return ""
	}
	s := string(r.data[r.pos : r.pos+idx])
	r.pos += idx + 1
	return s
}

// AlignedString reads a length-prefixed string followed by 4-byte padding.
func (r *reader) AlignedString() string {
	n := r.I32()
	s := string(r.take(int(n)))
	r.Align(4)
	return s
}

// Align advances to the next multiple of n relative to the start of the blob.
func (r *reader) Align(n int) {
	if r.err != nil || n <= 1 {
		return
	}
	if pad := (n - r.pos%n) % n; pad > 0 {
		if pad > r.Remaining() {
			r.pos = len(r.data)
			return
		}
		r.pos += pad
	}
}
