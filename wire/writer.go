package wire

import (
	"encoding/binary"

	"github.com/orogen-io/sideband/types"
)

// Writer appends wire-encoded fields to a byte slice. Size bounds are
// enforced once per message at the end of Append, not per field.
type Writer struct {
	buf []byte
}

// U8 appends one unsigned byte.
func (w *Writer) U8(v uint8) {
	w.buf = append(w.buf, v)
}

// Bool appends a one-byte boolean.
func (w *Writer) Bool(v bool) {
	if v {
		w.U8(1)
	} else {
		w.U8(0)
	}
}

// U16 appends a big-endian uint16.
func (w *Writer) U16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

// U32 appends a big-endian uint32.
func (w *Writer) U32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

// U64 appends a big-endian uint64.
func (w *Writer) U64(v uint64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, v)
}

// I64 appends a big-endian int64.
func (w *Writer) I64(v int64) {
	w.U64(uint64(v))
}

// Bytes appends a u32-length-prefixed byte sequence.
func (w *Writer) Bytes(b []byte) {
	w.U32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// Text appends a u32-length-prefixed text field.
func (w *Writer) Text(s string) {
	w.U32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// I32s appends a u32-count-prefixed sequence of big-endian int32 values.
func (w *Writer) I32s(vals []int32) {
	w.U32(uint32(len(vals)))
	for _, v := range vals {
		w.U32(uint32(v))
	}
}

// U64s appends a u32-count-prefixed sequence of big-endian uint64 values.
func (w *Writer) U64s(vals []uint64) {
	w.U32(uint32(len(vals)))
	for _, v := range vals {
		w.U64(v)
	}
}

// Slots appends a u32-count-prefixed sequence of arena slot handles.
func (w *Writer) Slots(slots []types.Slot) {
	w.U32(uint32(len(slots)))
	for _, s := range slots {
		w.U32(uint32(s))
	}
}
