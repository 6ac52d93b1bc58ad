package rpc

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/orogen-io/sideband/wire"
)

// Values cross the boundary pre-encoded in the exchange arena, referenced
// by slot handles. The encoding mirrors the envelope's conventions:
// big-endian fixed-width numerics, u32 length prefixes, one byte per bool.
//
// Go representations per tag kind: 'n' nil, 'b' bool, 'i' int32, 'I'
// int64, 'f' float64, 's' string, 'B' []byte, 'l' []any.

// appendValue encodes v as a t into dst.
func appendValue(dst []byte, t Type, v any) ([]byte, error) {
	switch t.Kind {
	case KindNone:
		if v != nil {
			return nil, fmt.Errorf("rpc value: non-nil value for none type")
		}
		return dst, nil
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, typeMismatch(t, v)
		}
		if b {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case KindInt32:
		n, ok := v.(int32)
		if !ok {
			return nil, typeMismatch(t, v)
		}
		return binary.BigEndian.AppendUint32(dst, uint32(n)), nil
	case KindInt64:
		n, ok := v.(int64)
		if !ok {
			return nil, typeMismatch(t, v)
		}
		return binary.BigEndian.AppendUint64(dst, uint64(n)), nil
	case KindFloat64:
		f, ok := v.(float64)
		if !ok {
			return nil, typeMismatch(t, v)
		}
		return binary.BigEndian.AppendUint64(dst, math.Float64bits(f)), nil
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, typeMismatch(t, v)
		}
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(s)))
		return append(dst, s...), nil
	case KindBytes:
		b, ok := v.([]byte)
		if !ok {
			return nil, typeMismatch(t, v)
		}
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(b)))
		return append(dst, b...), nil
	case KindList:
		elems, ok := v.([]any)
		if !ok {
			return nil, typeMismatch(t, v)
		}
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(elems)))
		var err error
		for _, e := range elems {
			if dst, err = appendValue(dst, *t.Elem, e); err != nil {
				return nil, err
			}
		}
		return dst, nil
	default:
		return nil, fmt.Errorf("rpc value: unencodable type %v", t)
	}
}

// readValue decodes one t from r.
func readValue(r *wire.Reader, t Type) (any, error) {
	switch t.Kind {
	case KindNone:
		return nil, nil
	case KindBool:
		return r.Bool()
	case KindInt32:
		n, err := r.U32()
		return int32(n), err
	case KindInt64:
		return r.I64()
	case KindFloat64:
		bits, err := r.U64()
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(bits), nil
	case KindString:
		return r.Text()
	case KindBytes:
		// Copy: arena views do not outlive the exchange, handler
		// results might.
		view, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), view...), nil
	case KindList:
		count, err := r.U32()
		if err != nil {
			return nil, err
		}
		elems := make([]any, 0, count)
		for i := uint32(0); i < count; i++ {
			e, err := readValue(r, *t.Elem)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return elems, nil
	default:
		return nil, fmt.Errorf("rpc value: undecodable type %v", t)
	}
}

func typeMismatch(t Type, v any) error {
	return fmt.Errorf("rpc value: %T does not encode as %v", v, t)
}
