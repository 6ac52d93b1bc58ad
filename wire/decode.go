package wire

import (
	"github.com/orogen-io/sideband/types"
)

// Decode decodes one message from buf. Byte-slice fields of the returned
// message alias buf; callers retaining them past the buffer's lifetime
// must copy. Fails with a malformed error on an unrecognized tag or a
// payload inconsistent with the tag's shape, and with a truncation error
// on any length field that would read past the buffer bound.
func Decode(buf []byte) (types.Message, error) {
	if len(buf) == 0 {
		return nil, truncated("empty buffer")
	}
	tag := Tag(buf[0])
	cat, ok := tag.Category()
	if !ok {
		return nil, malformed("unrecognized tag 0x%02x", uint8(tag))
	}
	r := NewReader(buf[1:])

	var (
		m   types.Message
		err error
	)
	switch cat {
	case types.CategoryLoad:
		m, err = decodeLoad(tag, r)
	case types.CategoryClock:
		m, err = decodeClock(tag, r)
	case types.CategoryRun:
		m, err = decodeRun(tag, r)
	case types.CategoryWatchdog:
		m, err = decodeWatchdog(tag, r)
	case types.CategoryDrtio:
		m, err = decodeDrtio(tag, r)
	case types.CategoryRPC:
		m, err = decodeRPC(tag, r)
	case types.CategoryCache:
		m, err = decodeCache(tag, r)
	case types.CategoryI2C:
		m, err = decodeI2C(tag, r)
	case types.CategoryLog:
		m, err = decodeLog(tag, r)
	}
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, malformed("%s payload has %d trailing bytes", tag, r.Len())
	}
	return m, nil
}

func decodeLoad(tag Tag, r *Reader) (types.Message, error) {
	switch tag {
	case TagLoadRequest:
		lib, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		return types.LoadRequest{Library: lib}, nil
	case TagLoadReply:
		status, err := r.U8()
		if err != nil {
			return nil, err
		}
		switch status {
		case 0:
			return types.LoadReply{}, nil
		case 1:
			kind, err := r.U8()
			if err != nil {
				return nil, err
			}
			if kind > uint8(types.LinkErrorLookup) {
				return nil, malformed("invalid link error kind %d", kind)
			}
			detail, err := r.Text()
			if err != nil {
				return nil, err
			}
			return types.LoadReply{Err: &types.LinkError{
				Kind:   types.LinkErrorKind(kind),
				Detail: detail,
			}}, nil
		default:
			return nil, malformed("invalid load reply status %d", status)
		}
	}
	return nil, malformed("unrecognized load tag 0x%02x", uint8(tag))
}

func decodeClock(tag Tag, r *Reader) (types.Message, error) {
	switch tag {
	case TagNowInitRequest:
		return types.NowInitRequest{}, nil
	case TagNowInitReply:
		now, err := r.U64()
		if err != nil {
			return nil, err
		}
		return types.NowInitReply{Now: now}, nil
	case TagNowSave:
		now, err := r.U64()
		if err != nil {
			return nil, err
		}
		return types.NowSave{Now: now}, nil
	case TagRtioInitRequest:
		return types.RtioInitRequest{}, nil
	}
	return nil, malformed("unrecognized clock tag 0x%02x", uint8(tag))
}

func decodeRun(tag Tag, r *Reader) (types.Message, error) {
	switch tag {
	case TagRunFinished:
		return types.RunFinished{}, nil
	case TagRunException:
		exc, err := readException(r)
		if err != nil {
			return nil, err
		}
		backtrace, err := r.U64s()
		if err != nil {
			return nil, err
		}
		return types.RunException{Exception: exc, Backtrace: backtrace}, nil
	case TagRunAborted:
		return types.RunAborted{}, nil
	}
	return nil, malformed("unrecognized run tag 0x%02x", uint8(tag))
}

func decodeWatchdog(tag Tag, r *Reader) (types.Message, error) {
	switch tag {
	case TagWatchdogSetRequest:
		ms, err := r.U64()
		if err != nil {
			return nil, err
		}
		return types.WatchdogSetRequest{Millis: ms}, nil
	case TagWatchdogSetReply:
		id, err := r.U32()
		if err != nil {
			return nil, err
		}
		return types.WatchdogSetReply{ID: id}, nil
	case TagWatchdogClear:
		id, err := r.U32()
		if err != nil {
			return nil, err
		}
		return types.WatchdogClear{ID: id}, nil
	}
	return nil, malformed("unrecognized watchdog tag 0x%02x", uint8(tag))
}

func decodeDrtio(tag Tag, r *Reader) (types.Message, error) {
	switch tag {
	case TagDrtioChannelStateRequest:
		ch, err := r.U32()
		if err != nil {
			return nil, err
		}
		return types.DrtioChannelStateRequest{Channel: ch}, nil
	case TagDrtioChannelStateReply:
		space, err := r.U16()
		if err != nil {
			return nil, err
		}
		ts, err := r.U64()
		if err != nil {
			return nil, err
		}
		return types.DrtioChannelStateReply{FifoSpace: space, LastTimestamp: ts}, nil
	case TagDrtioResetChannelStateRequest:
		ch, err := r.U32()
		if err != nil {
			return nil, err
		}
		return types.DrtioResetChannelStateRequest{Channel: ch}, nil
	case TagDrtioGetFifoSpaceRequest:
		ch, err := r.U32()
		if err != nil {
			return nil, err
		}
		return types.DrtioGetFifoSpaceRequest{Channel: ch}, nil
	case TagDrtioPacketCountRequest:
		return types.DrtioPacketCountRequest{}, nil
	case TagDrtioPacketCountReply:
		tx, err := r.U32()
		if err != nil {
			return nil, err
		}
		rx, err := r.U32()
		if err != nil {
			return nil, err
		}
		return types.DrtioPacketCountReply{TxCount: tx, RxCount: rx}, nil
	case TagDrtioFifoSpaceReqCountRequest:
		return types.DrtioFifoSpaceReqCountRequest{}, nil
	case TagDrtioFifoSpaceReqCountReply:
		cnt, err := r.U32()
		if err != nil {
			return nil, err
		}
		return types.DrtioFifoSpaceReqCountReply{Count: cnt}, nil
	}
	return nil, malformed("unrecognized drtio tag 0x%02x", uint8(tag))
}

func decodeRPC(tag Tag, r *Reader) (types.Message, error) {
	switch tag {
	case TagRpcSend:
		async, err := r.Bool()
		if err != nil {
			return nil, err
		}
		service, err := r.U32()
		if err != nil {
			return nil, err
		}
		tagBytes, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		args, err := r.Slots()
		if err != nil {
			return nil, err
		}
		return types.RpcSend{Async: async, Service: service, Tag: tagBytes, Args: args}, nil
	case TagRpcRecvRequest:
		dest, err := r.U32()
		if err != nil {
			return nil, err
		}
		return types.RpcRecvRequest{Dest: types.Slot(dest)}, nil
	case TagRpcRecvReply:
		status, err := r.U8()
		if err != nil {
			return nil, err
		}
		switch status {
		case 0:
			size, err := r.U32()
			if err != nil {
				return nil, err
			}
			return types.RpcRecvReply{Size: size}, nil
		case 1:
			exc, err := readException(r)
			if err != nil {
				return nil, err
			}
			return types.RpcRecvReply{Exc: &exc}, nil
		default:
			return nil, malformed("invalid rpc reply status %d", status)
		}
	}
	return nil, malformed("unrecognized rpc tag 0x%02x", uint8(tag))
}

func decodeCache(tag Tag, r *Reader) (types.Message, error) {
	switch tag {
	case TagCacheGetRequest:
		key, err := r.Text()
		if err != nil {
			return nil, err
		}
		return types.CacheGetRequest{Key: key}, nil
	case TagCacheGetReply:
		value, err := r.I32s()
		if err != nil {
			return nil, err
		}
		return types.CacheGetReply{Value: value}, nil
	case TagCachePutRequest:
		key, err := r.Text()
		if err != nil {
			return nil, err
		}
		value, err := r.I32s()
		if err != nil {
			return nil, err
		}
		return types.CachePutRequest{Key: key, Value: value}, nil
	case TagCachePutReply:
		ok, err := r.Bool()
		if err != nil {
			return nil, err
		}
		return types.CachePutReply{Succeeded: ok}, nil
	}
	return nil, malformed("unrecognized cache tag 0x%02x", uint8(tag))
}

func decodeI2C(tag Tag, r *Reader) (types.Message, error) {
	switch tag {
	case TagI2cStartRequest:
		bus, err := r.U8()
		if err != nil {
			return nil, err
		}
		return types.I2cStartRequest{Bus: bus}, nil
	case TagI2cStopRequest:
		bus, err := r.U8()
		if err != nil {
			return nil, err
		}
		return types.I2cStopRequest{Bus: bus}, nil
	case TagI2cWriteRequest:
		bus, err := r.U8()
		if err != nil {
			return nil, err
		}
		data, err := r.U8()
		if err != nil {
			return nil, err
		}
		return types.I2cWriteRequest{Bus: bus, Data: data}, nil
	case TagI2cWriteReply:
		ack, err := r.Bool()
		if err != nil {
			return nil, err
		}
		return types.I2cWriteReply{Ack: ack}, nil
	case TagI2cReadRequest:
		bus, err := r.U8()
		if err != nil {
			return nil, err
		}
		ack, err := r.Bool()
		if err != nil {
			return nil, err
		}
		return types.I2cReadRequest{Bus: bus, Ack: ack}, nil
	case TagI2cReadReply:
		data, err := r.U8()
		if err != nil {
			return nil, err
		}
		return types.I2cReadReply{Data: data}, nil
	}
	return nil, malformed("unrecognized i2c tag 0x%02x", uint8(tag))
}

func decodeLog(tag Tag, r *Reader) (types.Message, error) {
	switch tag {
	case TagLog:
		text, err := r.Text()
		if err != nil {
			return nil, err
		}
		return types.Log{Text: text}, nil
	case TagLogSlice:
		text, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		return types.LogSlice{Text: text}, nil
	}
	return nil, malformed("unrecognized log tag 0x%02x", uint8(tag))
}

func readException(r *Reader) (types.Exception, error) {
	var exc types.Exception
	var err error
	if exc.Name, err = r.Text(); err != nil {
		return exc, err
	}
	if exc.File, err = r.Text(); err != nil {
		return exc, err
	}
	if exc.Line, err = r.U32(); err != nil {
		return exc, err
	}
	if exc.Column, err = r.U32(); err != nil {
		return exc, err
	}
	if exc.Function, err = r.Text(); err != nil {
		return exc, err
	}
	if exc.Message, err = r.Text(); err != nil {
		return exc, err
	}
	for i := range exc.Param {
		if exc.Param[i], err = r.I64(); err != nil {
			return exc, err
		}
	}
	return exc, nil
}
