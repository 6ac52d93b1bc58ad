package wire

import (
	"encoding/binary"

	"github.com/orogen-io/sideband/types"
)

// Reader is a bounds-checked cursor over an encoded payload. Every read
// validates against the buffer bound before touching it; length-prefixed
// reads validate the declared length before allocating. Bytes returns
// views into the underlying buffer.
type Reader struct {
	buf []byte
	off int
}

// NewReader creates a reader over buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.buf) - r.off
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.Len() < n {
		return nil, truncated("need %d bytes, %d remain", n, r.Len())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// U8 reads one unsigned byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Bool reads a one-byte boolean. Values other than 0 and 1 are malformed.
func (r *Reader) Bool() (bool, error) {
	v, err := r.U8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, malformed("invalid bool byte 0x%02x", v)
	}
}

// U16 reads a big-endian uint16.
func (r *Reader) U16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// U32 reads a big-endian uint32.
func (r *Reader) U32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// U64 reads a big-endian uint64.
func (r *Reader) U64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// I64 reads a big-endian int64.
func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

// Bytes reads a u32-length-prefixed byte sequence as a view into the
// input buffer. The view is valid only for the buffer's lifetime.
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(r.Len()) {
		return nil, truncated("declared length %d exceeds %d remaining bytes", n, r.Len())
	}
	return r.take(int(n))
}

// Text reads a u32-length-prefixed text field into an owned string.
func (r *Reader) Text() (string, error) {
	b, err := r.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// I32s reads a u32-count-prefixed sequence of big-endian int32 values.
// The count is validated against the remaining buffer before the single
// bounded allocation.
func (r *Reader) I32s() ([]int32, error) {
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	if uint64(n)*4 > uint64(r.Len()) {
		return nil, truncated("declared count %d exceeds %d remaining bytes", n, r.Len())
	}
	b, err := r.take(int(n) * 4)
	if err != nil {
		return nil, err
	}
	vals := make([]int32, n)
	for i := range vals {
		vals[i] = int32(binary.BigEndian.Uint32(b[i*4:]))
	}
	return vals, nil
}

// U64s reads a u32-count-prefixed sequence of big-endian uint64 values.
func (r *Reader) U64s() ([]uint64, error) {
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	if uint64(n)*8 > uint64(r.Len()) {
		return nil, truncated("declared count %d exceeds %d remaining bytes", n, r.Len())
	}
	b, err := r.take(int(n) * 8)
	if err != nil {
		return nil, err
	}
	vals := make([]uint64, n)
	for i := range vals {
		vals[i] = binary.BigEndian.Uint64(b[i*8:])
	}
	return vals, nil
}

// Slots reads a u32-count-prefixed sequence of arena slot handles.
func (r *Reader) Slots() ([]types.Slot, error) {
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	if uint64(n)*4 > uint64(r.Len()) {
		return nil, truncated("declared count %d exceeds %d remaining bytes", n, r.Len())
	}
	b, err := r.take(int(n) * 4)
	if err != nil {
		return nil, err
	}
	slots := make([]types.Slot, n)
	for i := range slots {
		slots[i] = types.Slot(binary.BigEndian.Uint32(b[i*4:]))
	}
	return slots, nil
}
